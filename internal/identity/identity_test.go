package identity

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_PrefersForwardedFor(t *testing.T) {
	h := http.Header{}
	h.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", Extract(h, "10.0.0.1:5555"))
}

func TestExtract_CaseInsensitiveHeader(t *testing.T) {
	h := http.Header{}
	h.Set("x-forwarded-for", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", Extract(h, ""))
}

func TestExtract_FallsBackToPeerAddr(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "10.0.0.1:5555", Extract(h, "10.0.0.1:5555"))
}

func TestExtract_FallsBackToUnknown(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, Unknown, Extract(h, ""))
}

func TestExtract_VerbatimNoCommaListParsing(t *testing.T) {
	h := http.Header{}
	h.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	assert.Equal(t, "203.0.113.9, 10.0.0.2", Extract(h, ""))
}
