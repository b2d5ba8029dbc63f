package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(hub *Hub, userID int) *Client {
	return NewClient(hub, nil, userID, nil, zap.NewNop())
}

func readFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case data := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		return f
	default:
		t.Fatal("no frame queued")
		return Frame{}
	}
}

func TestRegisterAnnouncesPresence(t *testing.T) {
	hub := NewHub(zap.NewNop())

	alice := testClient(hub, 1)
	hub.Register(alice)
	assert.Equal(t, []int{1}, hub.Online())

	bob := testClient(hub, 2)
	hub.Register(bob)

	f := readFrame(t, alice)
	assert.Equal(t, FrameTypePresence, f.Type)
	assert.Equal(t, 2, f.SenderID)
	assert.Equal(t, "online", f.Body)
}

func TestSecondConnectionIsSilent(t *testing.T) {
	hub := NewHub(zap.NewNop())

	alice := testClient(hub, 1)
	hub.Register(alice)

	// same user, second tab: no presence noise
	aliceTab := testClient(hub, 1)
	hub.Register(aliceTab)

	assert.Empty(t, alice.send)
	assert.Len(t, hub.Online(), 1)
}

func TestSendToUser(t *testing.T) {
	hub := NewHub(zap.NewNop())

	assert.False(t, hub.SendToUser(7, Frame{Type: FrameTypeChat}))

	first := testClient(hub, 7)
	second := testClient(hub, 7)
	hub.Register(first)
	hub.Register(second)

	require.True(t, hub.SendToUser(7, Frame{Type: FrameTypeChat, Body: "hello"}))

	for _, c := range []*Client{first, second} {
		f := readFrame(t, c)
		assert.Equal(t, FrameTypeChat, f.Type)
		assert.Equal(t, "hello", f.Body)
	}
}

func TestUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())

	alice := testClient(hub, 1)
	bob := testClient(hub, 2)
	hub.Register(alice)
	hub.Register(bob)
	readFrame(t, alice) // drain bob's online presence

	hub.Unregister(bob)
	assert.Equal(t, []int{1}, hub.Online())

	f := readFrame(t, alice)
	assert.Equal(t, FrameTypePresence, f.Type)
	assert.Equal(t, "offline", f.Body)

	// idempotent
	hub.Unregister(bob)
	assert.False(t, hub.SendToUser(2, Frame{Type: FrameTypeChat}))
}

func TestSlowClientDropsFrames(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := testClient(hub, 1)
	hub.Register(c)

	// nobody drains c.send; overflow must drop, not block
	for i := 0; i < sendQueueSize+10; i++ {
		hub.Broadcast(Frame{Type: FrameTypeChat, Body: "spam"})
	}
	assert.Len(t, c.send, sendQueueSize)
}
