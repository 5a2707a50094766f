package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/founderflow-backend/internal/realtime"
)

// localBus delivers messages in process. It serves single-replica setups
// that run without redis.
type localBus struct {
	mu         sync.RWMutex
	forwarders []func(m realtime.Message)
}

func NewLocalBus() Bus { return &localBus{} }

func (b *localBus) Publish(_ context.Context, msg realtime.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, f := range b.forwarders {
		f(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(_ context.Context, onMsg func(m realtime.Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.forwarders = append(b.forwarders, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	b.forwarders = nil
	b.mu.Unlock()
	return nil
}
