// Package types provides the value types shared by every fundflow package:
// amounts, identities, coded errors and entity timestamps.
package types

import "time"

// Entity carries wall-clock bookkeeping timestamps. Embed it in persisted
// domain types. It is independent of the logical timestamps (funding date,
// due date) that the ledger semantics use.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
