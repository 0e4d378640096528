// Package codegen implements the Code Generator: fresh 6-character room
// codes, unique against the Room Store.
package codegen

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/roomrelay/signaling/internal/metrics"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ErrExhausted is returned when no unique code was found within MaxAttempts.
var ErrExhausted = errors.New("codegen: exhausted attempts without finding a unique code")

// ExistenceChecker reports whether a room-id is currently occupied. The Room
// Store satisfies this via its Exists method.
type ExistenceChecker interface {
	Exists(roomID string) bool
}

// Generator produces codes of Length drawn uniformly from [a-z0-9], retrying
// until the code is absent from the Room Store, bounded by MaxAttempts.
type Generator struct {
	Length      int
	MaxAttempts int
	Store       ExistenceChecker
}

// New builds a Generator. length and maxAttempts must be positive; callers
// derive them from validated config.
func New(store ExistenceChecker, length, maxAttempts int) *Generator {
	return &Generator{Length: length, MaxAttempts: maxAttempts, Store: store}
}

// Generate draws a fresh unique room code, retrying on collision up to
// MaxAttempts times.
func (g *Generator) Generate() (string, error) {
	for attempt := 1; attempt <= g.MaxAttempts; attempt++ {
		code, err := randomCode(g.Length)
		if err != nil {
			return "", err
		}
		if !g.Store.Exists(code) {
			metrics.CodeGenerationAttempts.Observe(float64(attempt))
			return code, nil
		}
	}
	metrics.CodeGenerationAttempts.Observe(float64(g.MaxAttempts))
	return "", ErrExhausted
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
