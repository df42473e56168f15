package worker

import (
	"context"

	"github.com/google/uuid"
)

// Job is a unit of background work.
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type names the kind of work, used for logging
	Type() string

	// Execute runs the job
	Execute(ctx context.Context) error
}

type funcJob struct {
	id  uuid.UUID
	typ string
	fn  func(ctx context.Context) error
}

// NewJob wraps fn as a Job of the given type.
func NewJob(jobType string, fn func(ctx context.Context) error) Job {
	return &funcJob{id: uuid.New(), typ: jobType, fn: fn}
}

func (j *funcJob) ID() uuid.UUID { return j.id }
func (j *funcJob) Type() string { return j.typ }
func (j *funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }
