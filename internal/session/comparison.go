package session

import (
	"fmt"
	"slices"
	"sync"

	"inquiry_desk/platform/apperr"
)

// MaxCompared is how many properties can sit side by side.
const MaxCompared = 4

// Comparison is the per-session list of properties picked for comparison.
// Order is insertion order.
type Comparison struct {
	mu  sync.Mutex
	ids []int64
}

// Add appends id. Adding an id twice is a no-op.
func (c *Comparison) Add(id int64) error {
	if id <= 0 {
		return apperr.Validation("Invalid property id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.Contains(c.ids, id) {
		return nil
	}
	if len(c.ids) >= MaxCompared {
		return apperr.Validation(fmt.Sprintf("You can compare up to %d properties", MaxCompared))
	}
	c.ids = append(c.ids, id)
	return nil
}

// Remove drops id if present.
func (c *Comparison) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = slices.DeleteFunc(c.ids, func(v int64) bool { return v == id })
}

// Clear empties the list.
func (c *Comparison) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = nil
}

// IDs returns a copy of the compared property ids.
func (c *Comparison) IDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, len(c.ids))
	copy(out, c.ids)
	return out
}
