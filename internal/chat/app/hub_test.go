package app

import (
	"encoding/json"
	"testing"

	"direct_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

// stubConn records frames written to a session
type stubConn struct {
	frames [][]byte
}

func (c *stubConn) WriteMessage(messageType int, data []byte) error {
	c.frames = append(c.frames, data)
	return nil
}

func (c *stubConn) lastAction(t *testing.T) string {
	t.Helper()
	if len(c.frames) == 0 {
		return ""
	}
	var resp domain.WSResponse
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &resp); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	return resp.Action
}

func TestPairRoomName_Commutative(t *testing.T) {
	assert.Equal(t, domain.PairRoomName("alice", "bob"), domain.PairRoomName("bob", "alice"))
	assert.Equal(t, "alice-bob", domain.PairRoomName("bob", "alice"))
}

func TestHub_JoinAndEmit(t *testing.T) {
	hub := NewHub()

	aliceConn := &stubConn{}
	bobConn := &stubConn{}
	alice := NewSession("s1", "u1", "alice", aliceConn)
	bob := NewSession("s2", "u2", "bob", bobConn)
	hub.Register(alice)
	hub.Register(bob)

	room := hub.JoinPair(alice, "alice", "bob")
	hub.JoinPair(bob, "bob", "alice")
	assert.Equal(t, "alice-bob", room)

	hub.EmitRoom(room, domain.WSResponse{Action: string(domain.ChatMessage), Success: true})

	assert.Equal(t, string(domain.ChatMessage), aliceConn.lastAction(t))
	assert.Equal(t, string(domain.ChatMessage), bobConn.lastAction(t))
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := &stubConn{}
	sess := NewSession("s1", "u1", "alice", conn)
	hub.Register(sess)

	hub.Join(sess, "alice-bob")
	hub.Join(sess, "alice-bob")

	hub.EmitRoom("alice-bob", domain.WSResponse{Action: string(domain.ChatMessage)})

	// one membership, one frame
	assert.Len(t, conn.frames, 1)
}

func TestHub_LeaveUnjoinedRoomIsNoOp(t *testing.T) {
	hub := NewHub()
	sess := NewSession("s1", "u1", "alice", &stubConn{})
	hub.Register(sess)

	hub.Leave(sess, "never-joined")

	assert.False(t, hub.InRoom(sess, "never-joined"))
}

func TestHub_UnregisterDropsMemberships(t *testing.T) {
	hub := NewHub()
	conn := &stubConn{}
	sess := NewSession("s1", "u1", "alice", conn)
	hub.Register(sess)
	hub.Join(sess, "alice-bob")

	hub.Unregister(sess)

	hub.EmitRoom("alice-bob", domain.WSResponse{Action: string(domain.ChatMessage)})
	assert.Empty(t, conn.frames)
	assert.Nil(t, hub.SessionByID("s1"))
}

func TestHub_PairRoomsOfUser(t *testing.T) {
	hub := NewHub()

	s1 := NewSession("s1", "u1", "alice", &stubConn{})
	s2 := NewSession("s2", "u1", "alice", &stubConn{})
	hub.Register(s1)
	hub.Register(s2)

	// personal room is excluded, duplicate pair rooms collapse
	hub.Join(s1, "alice")
	hub.Join(s1, "alice-bob")
	hub.Join(s2, "alice-bob")
	hub.Join(s2, "alice-carol")

	rooms := hub.PairRoomsOfUser("u1")

	assert.ElementsMatch(t, []string{"alice-bob", "alice-carol"}, rooms)
}

func TestHub_EmitToEmptyRoom(t *testing.T) {
	hub := NewHub()
	// no members, no panic
	hub.EmitRoom("alice-bob", domain.WSResponse{Action: string(domain.ChatMessage)})
}
