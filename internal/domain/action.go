package domain

import "time"

// ActionStatus tracks a user's progress on one action-plan item.
type ActionStatus string

const (
	ActionPending ActionStatus = "pending"
	ActionDone    ActionStatus = "done"
	ActionSkipped ActionStatus = "skipped"
)

// Valid reports whether the status is one the store accepts.
func (s ActionStatus) Valid() bool {
	return s == ActionPending || s == ActionDone || s == ActionSkipped
}

// ActionItem is one entry in the user's action plan. The ID is the stable
// catalog key; Status, CompletedAt and Notes are user state and survive
// catalog migrations, everything else belongs to the catalog.
type ActionItem struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Phone       string       `json:"phone,omitempty"`
	Script      string       `json:"script,omitempty"`
	BringList   []string     `json:"bringList,omitempty"`
	Priority    int          `json:"priority"`
	Status      ActionStatus `json:"status"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}
