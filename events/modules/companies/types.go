// Package companies handles Kafka event production for directory changes.
package companies

import (
	"time"

	"github.com/sdstartups/startupmap-backend/model"
)

// EventType names a directory change.
type EventType string

// Directory change events.
const (
	CompanyCreated EventType = "company.created"
	CompanyUpdated EventType = "company.updated"
	CompanyDeleted EventType = "company.deleted"
)

// SchemaVersion of the event contract.
const SchemaVersion = "v1"

// CompanyEvent is the message published after a successful write. For
// deletions only the UUID of Company is set.
type CompanyEvent struct {
	EventType     EventType `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	Company model.Company `json:"company"`
}
