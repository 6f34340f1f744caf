package inbox

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishi-singh26/tempbox/internal/model"
)

func twoMessages() []model.Message {
	return []model.Message{
		{ID: "m1", Subject: "first", Seen: false},
		{ID: "m2", Subject: "second", Seen: true},
	}
}

func TestSetAndGet(t *testing.T) {
	cache := NewCache()

	_, ok := cache.Get("addr1")
	require.False(t, ok)

	cache.Set("addr1", model.MessageStore{Messages: twoMessages()})

	store, ok := cache.Get("addr1")
	require.True(t, ok)
	require.Len(t, store.Messages, 2)
	require.Equal(t, 1, store.UnreadCount())
}

func TestMarkFetchingPreservesMessages(t *testing.T) {
	cache := NewCache()
	cache.Set("addr1", model.MessageStore{Messages: twoMessages(), Error: "old error"})

	cache.MarkFetching("addr1")

	store, ok := cache.Get("addr1")
	require.True(t, ok)
	require.True(t, store.Fetching)
	require.Len(t, store.Messages, 2)
}

func TestMarkFetchingOnUnknownAddressCreatesEntry(t *testing.T) {
	cache := NewCache()

	cache.MarkFetching("addr1")

	store, ok := cache.Get("addr1")
	require.True(t, ok)
	require.True(t, store.Fetching)
	require.Empty(t, store.Messages)
}

func TestRemoveMessageMatchesByID(t *testing.T) {
	cache := NewCache()
	cache.Set("addr1", model.MessageStore{Messages: twoMessages()})

	require.True(t, cache.RemoveMessage("addr1", "m1"))

	store, _ := cache.Get("addr1")
	require.Len(t, store.Messages, 1)
	require.Equal(t, "m2", store.Messages[0].ID)

	require.False(t, cache.RemoveMessage("addr1", "m1"))
	require.False(t, cache.RemoveMessage("unknown", "m1"))
}

func TestUpdateMessageReplacesByID(t *testing.T) {
	cache := NewCache()
	cache.Set("addr1", model.MessageStore{Messages: twoMessages()})

	msg, ok := cache.Message("addr1", "m1")
	require.True(t, ok)

	require.True(t, cache.UpdateMessage("addr1", "m1", msg.WithSeen(true)))

	updated, ok := cache.Message("addr1", "m1")
	require.True(t, ok)
	require.True(t, updated.Seen)
	require.Equal(t, "first", updated.Subject)
	require.Equal(t, 0, cache.UnreadCount("addr1"))

	require.False(t, cache.UpdateMessage("addr1", "missing", msg))
}

func TestUpdateMessageDoesNotMutateReaders(t *testing.T) {
	cache := NewCache()
	cache.Set("addr1", model.MessageStore{Messages: twoMessages()})

	snapshot, _ := cache.Get("addr1")

	msg, _ := cache.Message("addr1", "m1")
	cache.UpdateMessage("addr1", "m1", msg.WithSeen(true))

	// A store read before the update keeps its view.
	require.False(t, snapshot.Messages[0].Seen)
}

func TestRemoveDropsEntry(t *testing.T) {
	cache := NewCache()
	cache.Set("addr1", model.MessageStore{Messages: twoMessages()})

	cache.Remove("addr1")

	_, ok := cache.Get("addr1")
	require.False(t, ok)
	require.Equal(t, 0, cache.UnreadCount("addr1"))
}

func TestEventsPublishedOnChange(t *testing.T) {
	cache := NewCache()

	cache.Set("addr1", model.MessageStore{})

	select {
	case ev := <-cache.Events():
		require.Equal(t, EventInbox, ev.Kind)
		require.Equal(t, "addr1", ev.AddressID)
	default:
		t.Fatal("expected an event after Set")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	cache := NewCache()

	// Far more events than the buffer holds; none may block.
	for i := 0; i < 1000; i++ {
		cache.Set("addr1", model.MessageStore{})
	}
}
