package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"pollgov/contexts/governance/poll-manager/ports"
	"pollgov/internal/shared/outbox"
)

const (
	EventPollCreated     = "poll.created"
	EventPollUpdated     = "poll.updated"
	EventPollFinalized   = "poll.finalized"
	EventAuthorityBound  = "poll.authority_bound"
	EventCreationFeeSet  = "poll.fee_updated"
	EventVoteCommitted   = "vote.committed"
	EventVoteRevealed    = "vote.revealed"
	EventAnomalyDetected = "poll.anomaly_detected"

	sourceService        = "poll-manager"
	pollPartitionKeyPath = "poll_id"
	settingsPartitionKey = "settings"
)

// EventTypes lists every event type the engine writes to the outbox.
var EventTypes = []string{
	EventPollCreated,
	EventPollUpdated,
	EventPollFinalized,
	EventAuthorityBound,
	EventCreationFeeSet,
	EventVoteCommitted,
	EventVoteRevealed,
	EventAnomalyDetected,
}

func newPollEnvelope(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	height uint64,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		SourceService:    sourceService,
		Height:           height,
		OccurredAt:       occurredAt.UTC(),
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

// appendPollEvent stages an event for pollID in the outbox of the current
// unit of work. Poll events are partitioned by poll id.
func (e *Engine) appendPollEvent(
	ctx context.Context,
	repo ports.Repository,
	eventType string,
	pollID uint64,
	height uint64,
	data map[string]any,
) error {
	return e.appendEvent(ctx, repo, eventType, pollPartitionKeyPath, strconv.FormatUint(pollID, 10), height, data)
}

func (e *Engine) appendSettingsEvent(
	ctx context.Context,
	repo ports.Repository,
	eventType string,
	height uint64,
	data map[string]any,
) error {
	return e.appendEvent(ctx, repo, eventType, settingsPartitionKey, settingsPartitionKey, height, data)
}

func (e *Engine) appendEvent(
	ctx context.Context,
	repo ports.Repository,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	height uint64,
	data map[string]any,
) error {
	if e.IDGen == nil {
		return nil
	}
	eventID, err := e.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := e.now()
	envelope, err := newPollEnvelope(eventID, eventType, partitionKeyPath, partitionKey, height, now, data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return repo.AppendOutbox(ctx, ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    now,
	})
}

func (e *Engine) now() time.Time {
	if e.WallClock != nil {
		return e.WallClock.Now().UTC()
	}
	return time.Now().UTC()
}
