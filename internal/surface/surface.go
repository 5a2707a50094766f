// Package surface tracks the latest submission per UI surface. Each submit
// gets a new sequence number and only the newest one may publish a result.
package surface

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
)

var (
	ErrNotFound     = errors.New("surface not found")
	ErrClosed       = errors.New("surface tracker closed")
	ErrEmptySurface = errors.New("surface id required")
)

// Snapshot is what a surface currently shows.
type Snapshot struct {
	Surface   string              `json:"surface"`
	Seq       int64               `json:"seq"`
	Template  string              `json:"template"`
	Model     string              `json:"model,omitempty"`
	State     pipeline.State      `json:"state"`
	Result    extract.Result      `json:"result,omitempty"`
	Error     *pipeline.ErrorView `json:"error,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type Ticket struct {
	Surface string `json:"surface"`
	Seq     int64  `json:"seq"`
}

// Store persists one snapshot per surface.
type Store interface {
	// Begin assigns the next sequence number for snap.Surface and records
	// snap under it.
	Begin(ctx context.Context, snap Snapshot) (int64, error)
	// Commit writes snap only while snap.Seq is still the newest sequence
	// handed out for the surface. It reports whether the write happened.
	Commit(ctx context.Context, snap Snapshot) (bool, error)
	Get(ctx context.Context, surface string) (Snapshot, error)
	Close() error
}
