package bus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/realtime"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

func TestLocalBusForwards(t *testing.T) {
	b := NewLocalBus()
	got := make(chan realtime.Message, 1)
	require.NoError(t, b.StartForwarder(context.Background(), func(m realtime.Message) { got <- m }))
	assert.Error(t, b.StartForwarder(context.Background(), nil))

	require.NoError(t, b.Publish(context.Background(), realtime.Message{Channel: "c", Event: realtime.EventSnapshot}))
	assert.Equal(t, "c", (<-got).Channel)

	require.NoError(t, b.Close())
	require.NoError(t, b.Publish(context.Background(), realtime.Message{Channel: "c"}))
	assert.Len(t, got, 0)
}

func TestFrameRestoresSnapshot(t *testing.T) {
	snap := surface.Snapshot{
		Surface:  "ideation",
		Seq:      7,
		Template: "idea_generator",
		State:    pipeline.Done,
		Result:   extract.Result{"name": "TimeWise"},
	}
	raw, err := encodeFrame(realtime.Message{
		Channel: realtime.SurfaceChannel("ideation"),
		Event:   realtime.EventSnapshot,
		Seq:     snap.Seq,
		Data:    snap,
	})
	require.NoError(t, err)

	msg, err := decodeFrame(string(raw))
	require.NoError(t, err)
	assert.Equal(t, realtime.SurfaceChannel("ideation"), msg.Channel)
	assert.Equal(t, int64(7), msg.Seq)
	got, ok := msg.Data.(surface.Snapshot)
	require.True(t, ok, "data decoded as %T", msg.Data)
	assert.Equal(t, pipeline.Done, got.State)
	assert.Equal(t, "TimeWise", got.Result["name"])
}

func TestFrameDecodeErrors(t *testing.T) {
	_, err := decodeFrame("not json")
	assert.Error(t, err)
	_, err = decodeFrame(`{"event":"SurfaceSnapshot"}`)
	assert.Error(t, err)
	_, err = decodeFrame(`{"channel":"c","event":"SurfaceSnapshot","data":[1]}`)
	assert.Error(t, err)

	msg, err := decodeFrame(`{"channel":"c","event":"Other","data":{"a":1}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(msg.Data.(json.RawMessage)))

	_, err = encodeFrame(realtime.Message{Channel: "c", Data: make(chan int)})
	assert.Error(t, err)
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	b, err := NewRedisBus(logger.Nop(), config.RedisConfig{Addr: addr}, "fftest:"+uuid.NewString())
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan realtime.Message, 1)
	require.NoError(t, b.StartForwarder(ctx, func(m realtime.Message) { got <- m }))
	require.NoError(t, b.Publish(ctx, realtime.Message{
		Channel: "surface:x",
		Event:   realtime.EventSnapshot,
		Seq:     3,
		Data:    surface.Snapshot{Surface: "x", Seq: 3, State: pipeline.AwaitingReply},
	}))

	select {
	case m := <-got:
		assert.Equal(t, "surface:x", m.Channel)
		assert.Equal(t, int64(3), m.Seq)
		assert.Equal(t, pipeline.AwaitingReply, m.Data.(surface.Snapshot).State)
	case <-time.After(2 * time.Second):
		t.Fatal("no message forwarded")
	}
}
