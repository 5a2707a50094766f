package realtime

import (
	"context"

	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

// SurfaceChannel is the hub channel carrying one surface's snapshots.
func SurfaceChannel(id string) string { return "surface:" + id }

type publishFunc func(ctx context.Context, msg Message) error

// SnapshotPublisher turns tracker snapshots into hub messages.
type SnapshotPublisher struct {
	publish publishFunc
	log     *logger.Logger
}

// NewSnapshotPublisher sends through publish, usually a bus.Bus Publish
// method. Publish errors are logged, never returned to the tracker.
func NewSnapshotPublisher(publish func(ctx context.Context, msg Message) error, log *logger.Logger) *SnapshotPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotPublisher{publish: publish, log: log.With("component", "SnapshotPublisher")}
}

func (p *SnapshotPublisher) PublishSnapshot(ctx context.Context, snap surface.Snapshot) {
	err := p.publish(ctx, Message{
		Channel: SurfaceChannel(snap.Surface),
		Event:   EventSnapshot,
		Seq:     snap.Seq,
		Data:    snap,
	})
	if err != nil {
		p.log.Warn("publish snapshot failed", "surface", snap.Surface, "seq", snap.Seq, "error", err)
	}
}
