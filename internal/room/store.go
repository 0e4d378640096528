package room

import (
	"github.com/roomrelay/signaling/internal/clock"
	"github.com/roomrelay/signaling/internal/metrics"
)

// Store is the Room Store: the single authoritative, serialized home for
// every Room. All mutation runs inside one goroutine that drains ops one at
// a time; every public method here blocks the calling goroutine until its
// own op has been applied, which includes waiting for any op the coordinator
// is already running.
type Store struct {
	clock clock.Clock
	ops   chan func()
	quit  chan struct{}

	rooms    map[string]*Room
	connRoom map[string]string // connection-id -> room-id, for connection-keyed lookups
}

// NewStore starts the coordinator goroutine and returns a ready Store.
func NewStore(c clock.Clock) *Store {
	s := &Store{
		clock:    c,
		ops:      make(chan func()),
		quit:     make(chan struct{}),
		rooms:    make(map[string]*Room),
		connRoom: make(map[string]string),
	}
	go s.run()
	return s
}

// Close stops the coordinator goroutine. Safe to call once.
func (s *Store) Close() {
	close(s.quit)
}

func (s *Store) run() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the coordinator goroutine and waits for it to complete,
// giving every exported method atomic, serialized visibility.
func (s *Store) do(fn func()) {
	done := make(chan struct{})
	s.ops <- func() {
		fn()
		close(done)
	}
	<-done
}

func (s *Store) banExpirySeconds(r *Room, identity string, now int64) (int, bool) {
	expiry, ok := r.banned[identity]
	if !ok {
		return 0, false
	}
	if expiry <= now {
		delete(r.banned, identity)
		return 0, false
	}
	return int(expiry - now), true
}

func (s *Store) muteExpirySeconds(r *Room, identity string, now int64) (int, bool) {
	expiry, ok := r.muted[identity]
	if !ok {
		return 0, false
	}
	if expiry <= now {
		delete(r.muted, identity)
		return 0, false
	}
	return int(expiry - now), true
}

// TryJoin attempts to add a new member to roomID under identity.
func (s *Store) TryJoin(roomID, connectionID, identity, name, avatar string, video, audio bool) JoinResult {
	var result JoinResult
	s.do(func() {
		id := NormalizeID(roomID)
		now := s.clock.Now().Unix()

		r, exists := s.rooms[id]
		if exists {
			if secs, banned := s.banExpirySeconds(r, identity, now); banned {
				result = JoinResult{Status: JoinStatusBanned, BanSecondsRemaining: secs}
				return
			}
			if r.locked && !r.isEmpty() {
				result = JoinResult{Status: JoinStatusLocked}
				return
			}
		} else {
			r = newRoom(id)
		}

		wasEmpty := r.isEmpty()
		existing := r.existingMembers()

		m := &Member{
			ConnectionID: connectionID,
			DisplayName:  name,
			Avatar:       avatar,
			Identity:     identity,
			IsAdmin:      wasEmpty,
			VideoEnabled: video,
			AudioEnabled: audio,
		}
		r.insert(m)
		s.rooms[id] = r
		s.connRoom[connectionID] = id

		muteSecs, muted := s.muteExpirySeconds(r, identity, now)

		result = JoinResult{
			Status:           JoinStatusJoined,
			IsAdmin:          wasEmpty,
			ExistingMembers:  existing,
			HasMuteRemaining: muted,
			MuteRemainingSec: muteSecs,
		}

		metrics.ActiveRooms.Set(float64(len(s.rooms)))
		metrics.RoomMembers.WithLabelValues(id).Set(float64(len(r.members)))
	})
	return result
}

// Leave removes connectionID from its room, if any, deleting the room
// atomically if it becomes empty.
func (s *Store) Leave(connectionID string) LeaveResult {
	var result LeaveResult
	s.do(func() {
		result = s.leaveLocked(connectionID)
	})
	return result
}

// leaveLocked must only run inside the coordinator goroutine.
func (s *Store) leaveLocked(connectionID string) LeaveResult {
	roomID, ok := s.connRoom[connectionID]
	if !ok {
		return LeaveResult{Status: LeaveStatusNotInRoom}
	}

	r, ok := s.rooms[roomID]
	if !ok {
		delete(s.connRoom, connectionID)
		return LeaveResult{Status: LeaveStatusNotInRoom}
	}

	m, ok := r.members[connectionID]
	if !ok {
		delete(s.connRoom, connectionID)
		return LeaveResult{Status: LeaveStatusNotInRoom}
	}

	wasAdmin := m.IsAdmin
	r.remove(connectionID)
	delete(s.connRoom, connectionID)

	if r.isEmpty() {
		delete(s.rooms, roomID)
		metrics.RoomMembers.DeleteLabelValues(roomID)
	} else {
		metrics.RoomMembers.WithLabelValues(roomID).Set(float64(len(r.members)))
	}
	metrics.ActiveRooms.Set(float64(len(s.rooms)))

	return LeaveResult{Status: LeaveStatusLeft, RoomID: roomID, WasAdmin: wasAdmin}
}

// SetMediaState updates a member's video/audio flags.
func (s *Store) SetMediaState(connectionID string, video, audio bool) MediaResult {
	var result MediaResult
	s.do(func() {
		roomID, ok := s.connRoom[connectionID]
		if !ok {
			result = MediaResult{Status: MediaStatusNotInRoom}
			return
		}
		r := s.rooms[roomID]
		m, ok := r.members[connectionID]
		if !ok {
			result = MediaResult{Status: MediaStatusNotInRoom}
			return
		}
		m.VideoEnabled = video
		m.AudioEnabled = audio
		result = MediaResult{Status: MediaStatusUpdated, RoomID: roomID}
	})
	return result
}

// ConnectionIDsInRoom returns the connection ids currently in roomID, in
// join order, for the Fan-out Engine's to-room/to-room-except delivery.
func (s *Store) ConnectionIDsInRoom(roomID string) []string {
	var out []string
	s.do(func() {
		r, ok := s.rooms[NormalizeID(roomID)]
		if !ok {
			return
		}
		out = make([]string, len(r.order))
		copy(out, r.order)
	})
	return out
}

// IsAdmin reports whether connectionID currently holds admin in its room.
func (s *Store) IsAdmin(connectionID string) bool {
	var isAdmin bool
	s.do(func() {
		roomID, ok := s.connRoom[connectionID]
		if !ok {
			return
		}
		r := s.rooms[roomID]
		if m, ok := r.members[connectionID]; ok {
			isAdmin = m.IsAdmin
		}
	})
	return isAdmin
}

// KnowsConnection reports whether connectionID currently belongs to any
// room. The Event Dispatcher relays signals to any known connection
// regardless of room, so this is the only membership check signaling needs.
func (s *Store) KnowsConnection(connectionID string) bool {
	var known bool
	s.do(func() {
		_, known = s.connRoom[connectionID]
	})
	return known
}

// MemberInfo returns a snapshot of a room member, or nil if absent.
func (s *Store) MemberInfo(roomID, targetConnectionID string) *Member {
	var out *Member
	s.do(func() {
		r, ok := s.rooms[NormalizeID(roomID)]
		if !ok {
			return
		}
		if m, ok := r.members[targetConnectionID]; ok {
			cp := *m
			out = &cp
		}
	})
	return out
}

// Exists reports whether roomID currently has at least one member, used by
// the Code Generator's uniqueness check.
func (s *Store) Exists(roomID string) bool {
	var exists bool
	s.do(func() {
		_, exists = s.rooms[NormalizeID(roomID)]
	})
	return exists
}

// AdminMutate applies a moderation action to roomID on behalf of
// actorConnectionID.
func (s *Store) AdminMutate(roomID, actorConnectionID string, action AdminAction) AdminResult {
	var result AdminResult
	s.do(func() {
		r, ok := s.rooms[NormalizeID(roomID)]
		if !ok {
			result = AdminResult{Status: AdminStatusNotAuthorized}
			return
		}
		actor, ok := r.members[actorConnectionID]
		if !ok || !actor.IsAdmin {
			result = AdminResult{Status: AdminStatusNotAuthorized}
			return
		}

		if action.Kind == ActionToggleLock {
			r.locked = !r.locked
			result = AdminResult{Status: AdminStatusApplied, Locked: r.locked}
			return
		}

		target, ok := r.members[action.Target]
		if !ok {
			result = AdminResult{Status: AdminStatusNoSuchTarget}
			return
		}

		now := s.clock.Now().Unix()
		switch action.Kind {
		case ActionKick:
			s.leaveLocked(action.Target)
		case ActionBan:
			r.banned[target.Identity] = now + int64(action.Seconds)
			s.leaveLocked(action.Target)
		case ActionMute:
			r.muted[target.Identity] = now + int64(action.Seconds)
		case ActionUnmute:
			delete(r.muted, target.Identity)
		}

		result = AdminResult{Status: AdminStatusApplied, Locked: r.locked}
	})
	return result
}
