package runner

import (
	"context"

	"github.com/rs/zerolog/log"

	"taskclock/internal/domain"
)

// Log records due tasks to the log only. It is the default runner when no
// agent webhook is configured, useful for local development.
type Log struct{}

func (Log) Run(ctx context.Context, task domain.Task) error {
	log.Info().
		Str("task_id", task.ID).
		Str("task_name", task.Name).
		Str("instructions", task.Instructions).
		Msg("task due")
	return nil
}
