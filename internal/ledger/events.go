package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a ledger change.
type EventType string

const (
	EventItemCreated      EventType = "saree.created"
	EventItemUpdated      EventType = "saree.updated"
	EventItemDeleted      EventType = "saree.deleted"
	EventSaleRecorded     EventType = "sale.recorded"
	EventSaleUpdated      EventType = "sale.updated"
	EventSaleDeleted      EventType = "sale.deleted"
	EventPurchaseRecorded EventType = "purchase.recorded"
)

// Event is published after a successful mutation and snapshot refresh.
type Event struct {
	Type     EventType `json:"type"`
	EntityID uuid.UUID `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Notifier receives ledger events. Notify must not block.
type Notifier interface {
	Notify(Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }
