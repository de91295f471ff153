package audit

import (
	"context"
	"fmt"
	"os"
	"sync"

	"concierge-backend/internal/model"
)

// Sink is a durable destination for audit entries.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Entry) error
}

// FileSink appends formatted lines to a local file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink appending to path. The file is created on first write.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Name() string { return "file" }

// Write appends one line. The file is opened per write so external rotation
// only needs a rename.
func (s *FileSink) Write(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if _, err := f.WriteString(FormatLine(e)); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	return f.Close()
}

// ActivityWriter persists structured audit rows.
type ActivityWriter interface {
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// StoreSink writes entries to the activities table.
type StoreSink struct {
	w ActivityWriter
}

// NewStoreSink creates a sink backed by w.
func NewStoreSink(w ActivityWriter) *StoreSink {
	return &StoreSink{w: w}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Write(ctx context.Context, e Entry) error {
	return s.w.CreateActivity(ctx, &model.Activity{
		Actor:     e.Actor,
		Action:    e.Action,
		Details:   e.Details,
		Timestamp: e.Timestamp,
	})
}
