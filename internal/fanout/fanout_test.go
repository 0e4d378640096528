package fanout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	cap    int
	queue  [][]byte
	closed bool
}

func newFakeSink(capacity int) *fakeSink {
	return &fakeSink{cap: capacity}
}

func (f *fakeSink) Enqueue(payload []byte) bool {
	if len(f.queue) >= f.cap {
		return false
	}
	f.queue = append(f.queue, payload)
	return true
}

func (f *fakeSink) Close() {
	f.closed = true
}

type fakeRooms struct {
	members map[string][]string
}

func (f *fakeRooms) ConnectionIDsInRoom(roomID string) []string {
	return f.members[roomID]
}

func TestToOne_DeliversToKnownConnection(t *testing.T) {
	e := NewEngine(&fakeRooms{})
	sink := newFakeSink(4)
	e.Register("c1", sink)

	e.ToOne("c1", []byte("hi"))
	require.Len(t, sink.queue, 1)
	assert.Equal(t, []byte("hi"), sink.queue[0])
}

func TestToOne_UnknownConnectionIsNoOp(t *testing.T) {
	e := NewEngine(&fakeRooms{})
	e.ToOne("ghost", []byte("hi")) // must not panic
}

func TestToOne_OverflowClosesConnection(t *testing.T) {
	e := NewEngine(&fakeRooms{})
	sink := newFakeSink(1)
	e.Register("c1", sink)

	e.ToOne("c1", []byte("1"))
	e.ToOne("c1", []byte("2"))

	assert.True(t, sink.closed)
}

func TestToRoom_DeliversToAllIncludingSender(t *testing.T) {
	rooms := &fakeRooms{members: map[string][]string{"room-1": {"a", "b"}}}
	e := NewEngine(rooms)
	sa, sb := newFakeSink(4), newFakeSink(4)
	e.Register("a", sa)
	e.Register("b", sb)

	e.ToRoom("room-1", []byte("x"))

	assert.Len(t, sa.queue, 1)
	assert.Len(t, sb.queue, 1)
}

func TestToRoomExcept_SkipsSender(t *testing.T) {
	rooms := &fakeRooms{members: map[string][]string{"room-1": {"a", "b"}}}
	e := NewEngine(rooms)
	sa, sb := newFakeSink(4), newFakeSink(4)
	e.Register("a", sa)
	e.Register("b", sb)

	e.ToRoomExcept("room-1", "a", []byte("x"))

	assert.Empty(t, sa.queue)
	assert.Len(t, sb.queue, 1)
}

func TestUnregister_RemovesSink(t *testing.T) {
	e := NewEngine(&fakeRooms{})
	sink := newFakeSink(4)
	e.Register("a", sink)
	e.Unregister("a")

	e.ToOne("a", []byte("x")) // no-op now
	assert.Empty(t, sink.queue)
}
