package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/realtime"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

const defaultChannel = "founderflow:snapshots"

// frame is the pub/sub payload. Data stays raw until the event says what
// it holds.
type frame struct {
	Channel string          `json:"channel"`
	Event   realtime.Event  `json:"event"`
	Seq     int64           `json:"seq,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(msg realtime.Message) ([]byte, error) {
	f := frame{Channel: msg.Channel, Event: msg.Event, Seq: msg.Seq}
	if msg.Data != nil {
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return nil, fmt.Errorf("encode %s data: %w", msg.Event, err)
		}
		f.Data = raw
	}
	return json.Marshal(f)
}

// decodeFrame restores a message so subscribers on other replicas see the
// same Go types as a local publish. Unknown events keep their raw JSON.
func decodeFrame(payload string) (realtime.Message, error) {
	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return realtime.Message{}, err
	}
	if f.Channel == "" {
		return realtime.Message{}, fmt.Errorf("frame has no channel")
	}
	msg := realtime.Message{Channel: f.Channel, Event: f.Event, Seq: f.Seq}
	if len(f.Data) == 0 {
		return msg, nil
	}
	switch f.Event {
	case realtime.EventSnapshot:
		var snap surface.Snapshot
		if err := json.Unmarshal(f.Data, &snap); err != nil {
			return realtime.Message{}, fmt.Errorf("decode snapshot: %w", err)
		}
		if msg.Seq == 0 {
			msg.Seq = snap.Seq
		}
		msg.Data = snap
	default:
		msg.Data = f.Data
	}
	return msg, nil
}

// RedisBus fans snapshots out to every replica subscribed to one pub/sub
// channel, including the publisher itself.
type RedisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisBus dials cfg and pings it before returning.
func NewRedisBus(log *logger.Logger, cfg config.RedisConfig, channel string) (*RedisBus, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisBusWithClient(log, rdb, channel), nil
}

// NewRedisBusWithClient takes ownership of rdb; Close closes it.
func NewRedisBusWithClient(log *logger.Logger, rdb goredis.UniversalClient, channel string) *RedisBus {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(channel) == "" {
		channel = defaultChannel
	}
	return &RedisBus{log: log.With("component", "RedisBus", "channel", channel), rdb: rdb, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, msg realtime.Message) error {
	raw, err := encodeFrame(msg)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// StartForwarder returns once the subscription is confirmed, then delivers
// frames to onMsg from a single goroutine until ctx ends.
func (b *RedisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go b.forward(ctx, sub, onMsg)
	return nil
}

func (b *RedisBus) forward(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.Message)) {
	defer sub.Close()
	frames := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-frames:
			if !ok {
				return
			}
			msg, err := decodeFrame(m.Payload)
			if err != nil {
				b.log.Warn("skipping undecodable frame", "error", err)
				continue
			}
			onMsg(msg)
		}
	}
}

func (b *RedisBus) Close() error { return b.rdb.Close() }
