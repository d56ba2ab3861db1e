// Package complaint defines complaint records, the storage boundary, and
// the channel reply formatting.
package complaint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/grouse/internal/slack"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/mattjoyce/grouse/internal/complaint Store

// Record is one recorded complaint.
type Record struct {
	ID       string
	At       time.Time
	Reporter string
	Text     string
	Channel  string
	Command  string
}

// NewRecord builds a Record from a decoded slash command.
func NewRecord(cmd slack.SlashCommand, at time.Time) Record {
	return Record{
		ID:       uuid.NewString(),
		At:       at.UTC(),
		Reporter: cmd.UserName,
		Text:     cmd.Text,
		Channel:  cmd.ChannelName,
		Command:  cmd.Command,
	}
}

// Store persists complaint records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put inserts a record.
	Put(ctx context.Context, rec Record) error

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int64, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
}
