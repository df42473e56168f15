package domain

import "github.com/google/uuid"

// Task is the subset of a task that notifications refer to. Task CRUD
// lives in a separate service which publishes lifecycle events.
type Task struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	UserID uuid.UUID `json:"userId"` // owner
}
