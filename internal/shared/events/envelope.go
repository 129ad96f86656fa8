package events

import (
	"encoding/json"
	"time"
)

// Envelope is the event shape published on the bus.
// Height is the block height the producing operation executed at.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	SourceService    string          `json:"source_service"`
	Height           uint64          `json:"height"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}
