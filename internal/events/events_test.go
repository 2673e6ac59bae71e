package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
)

func TestNewAuditEvent(t *testing.T) {
	community := &models.Community{ID: 3, Name: "tech"}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := &models.AuditLogEntry{
		ID:           11,
		CommunityID:  3,
		ActionType:   models.ActionRemoveAdministrator,
		SourceUserID: 1,
		TargetUserID: 2,
		CreatedAt:    at,
	}

	e := NewAuditEvent(community, entry)

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeAuditLogEntry, e.Type)
	assert.Equal(t, "remove_administrator", e.Action)
	assert.Equal(t, "RA", e.ActionCode)
	assert.Equal(t, int64(11), e.LogEntryID)
	assert.Equal(t, "tech", e.CommunityName)
	assert.Equal(t, int64(1), e.SourceUserID)
	assert.Equal(t, int64(2), e.TargetUserID)
	assert.Equal(t, at, e.OccurredAt)
}

func TestToMessagesKeyedByCommunity(t *testing.T) {
	events := []Event{
		{ID: "a", CommunityName: "tech", Action: "add_administrator"},
		{ID: "b", CommunityName: "golang", Action: "ban_user"},
	}

	msgs, err := toMessages(events)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "tech", string(msgs[0].Key))
	assert.Equal(t, "golang", string(msgs[1].Key))

	var decoded Event
	require.NoError(t, json.Unmarshal(msgs[1].Value, &decoded))
	assert.Equal(t, "b", decoded.ID)
	assert.Equal(t, "ban_user", decoded.Action)
}

func TestNewDisabled(t *testing.T) {
	p, err := New(&config.EventsConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{ID: "x"}))
	assert.NoError(t, p.Close())
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(&config.EventsConfig{Enabled: true, Topic: "t"})
	assert.Error(t, err)
}
