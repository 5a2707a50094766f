package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/founderflow-backend/internal/platform/dbctx"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

// Recorder stores successful outcomes. Failed runs are only logged.
type Recorder struct {
	repo Repo
	log  *logger.Logger
}

func NewRecorder(repo Repo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{repo: repo, log: log.With("service", "HistoryRecorder")}
}

// Record returns nil, nil for an outcome that did not finish Done.
func (r *Recorder) Record(ctx context.Context, surfaceID string, sub pipeline.Submission, out pipeline.Outcome, version int) (*Record, error) {
	if !out.Ok() {
		return nil, nil
	}
	reqJSON, err := json.Marshal(sub.Request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resJSON, err := json.Marshal(out.Result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if version <= 0 {
		version = 1
	}
	rec := &Record{
		Surface:         surfaceID,
		Template:        out.Template,
		TemplateVersion: version,
		Model:           out.Model,
		Request:         reqJSON,
		Result:          resJSON,
		DurationMS:      out.Duration.Milliseconds(),
	}
	if err := r.repo.Create(dbctx.New(ctx), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// OnSurfaceDone is a surface.Tracker hook. Stale replies are not stored.
func (r *Recorder) OnSurfaceDone(versionOf func(template string) int) func(ctx context.Context, c surface.Completion) {
	return func(ctx context.Context, c surface.Completion) {
		if !c.Committed {
			return
		}
		v := 0
		if versionOf != nil {
			v = versionOf(c.Submission.Template)
		}
		if _, err := r.Record(ctx, c.Ticket.Surface, c.Submission, c.Outcome, v); err != nil {
			r.log.With(ctxutil.LogFields(ctx)...).Error("history write failed",
				"surface", c.Ticket.Surface,
				"template", c.Submission.Template,
				"error", err,
			)
		}
	}
}
