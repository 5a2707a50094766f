// Package bus carries realtime messages between API replicas.
package bus

import (
	"context"

	"github.com/yungbote/founderflow-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
