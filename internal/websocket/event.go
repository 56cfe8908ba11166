package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated        EventType = "created"
	EventTypeUpdated        EventType = "updated"
	EventTypeDeleted        EventType = "deleted"
	EventTypeBalanceChanged EventType = "balance_changed"
	EventTypeReset          EventType = "reset"
	EventTypeImported       EventType = "imported"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeWallet      EntityType = "wallet"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "transaction.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "transaction"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// TransactionUpdated creates a transaction.updated event
func TransactionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}

// TransactionsReset creates a transaction.reset event
func TransactionsReset(payload interface{}) Event {
	return NewEvent(EventTypeReset, EntityTypeTransaction, payload)
}

// TransactionsImported creates a transaction.imported event
func TransactionsImported(payload interface{}) Event {
	return NewEvent(EventTypeImported, EntityTypeTransaction, payload)
}

// WalletCreated creates a wallet.created event
func WalletCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeWallet, payload)
}

// WalletUpdated creates a wallet.updated event
func WalletUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeWallet, payload)
}

// WalletDeleted creates a wallet.deleted event
func WalletDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeWallet, payload)
}

// WalletBalanceChanged creates a wallet.balance_changed event
func WalletBalanceChanged(payload interface{}) Event {
	return NewEvent(EventTypeBalanceChanged, EntityTypeWallet, payload)
}
