package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

const (
	KindSale       Kind = "sale"
	KindCancelled  Kind = "sale_cancelled"
	KindOutOfStock Kind = "out_of_stock"
)

// DefaultCapacity bounds the feed when no capacity is configured.
const DefaultCapacity = 200

// Notification is one entry of the admin feed.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Reference string    `json:"reference"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed keeps the most recent notifications in memory.
// Oldest entries are dropped once capacity is reached.
type Feed struct {
	mu       sync.RWMutex
	items    []Notification
	capacity int
}

// NewFeed creates a feed holding at most capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		items:    make([]Notification, 0, capacity),
		capacity: capacity,
	}
}

// Add records a notification and returns it.
func (f *Feed) Add(kind Kind, reference, message string, at time.Time) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Reference: reference,
		Message:   message,
		Timestamp: at,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == f.capacity {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, n)
	return n
}

// List returns up to limit entries newest first, optionally only of kind.
// A limit of zero returns every matching entry.
func (f *Feed) List(kind Kind, limit int) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]Notification, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		if kind != "" && f.items[i].Kind != kind {
			continue
		}
		result = append(result, f.items[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Len returns the number of stored entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}
