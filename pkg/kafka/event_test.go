package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingData struct {
	ItemID string `json:"item_id"`
	Rating int    `json:"rating"`
}

func TestNewEvent_Fields(t *testing.T) {
	event, err := NewEvent("rating.submitted", "item", "665f1c2e9b1d4a0012345678", "storefront", ratingData{ItemID: "665f1c2e9b1d4a0012345678", Rating: 8})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "rating.submitted", event.EventType)
	assert.Equal(t, "item", event.AggregateType)
	assert.Equal(t, "665f1c2e9b1d4a0012345678", event.AggregateID)
	assert.Equal(t, "storefront", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a, err := NewEvent("item.deleted", "item", "1", "storefront", nil)
	require.NoError(t, err)
	b, err := NewEvent("item.deleted", "item", "1", "storefront", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent("x", "item", "1", "storefront", make(chan int))
	require.Error(t, err)
}

func TestEvent_RoundTripKeepsEnvelope(t *testing.T) {
	event, err := NewEvent("user.deleted", "user", "u1", "storefront", map[string]int{"reviews_removed": 2})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1").WithActor("admin-1").WithMetadata("reason", "cleanup")

	raw, err := event.Marshal()
	require.NoError(t, err)
	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)
	assert.Equal(t, "admin-1", decoded.ActorID)
	assert.Equal(t, "cleanup", decoded.Metadata["reason"])

	var data map[string]int
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, 2, data["reviews_removed"])
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{not json"))
	require.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"1"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event_type")
}
