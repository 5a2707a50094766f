package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/founderflow-backend/internal/history"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/dbctx"
	"github.com/yungbote/founderflow-backend/internal/prompt"
	"github.com/yungbote/founderflow-backend/internal/realtime"
)

type generateResponse struct {
	Template   string         `json:"template"`
	Model      string         `json:"model"`
	Result     map[string]any `json:"result"`
	DurationMS int64          `json:"duration_ms"`
	HistoryID  *uuid.UUID     `json:"history_id,omitempty"`
}

// generate runs the pipeline inline. A client disconnect cancels the call.
func (s *server) generate(c *gin.Context) {
	var in fieldsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondError(c, badRequest("invalid JSON body"))
		return
	}
	sub := pipeline.Submission{Template: c.Param("template"), Request: in.Fields, Model: in.Model}
	out := s.Pipeline.Run(c.Request.Context(), sub)
	if !out.Ok() {
		s.respondError(c, out.Err)
		return
	}

	resp := generateResponse{
		Template:   out.Template,
		Model:      out.Model,
		Result:     out.Result,
		DurationMS: out.Duration.Milliseconds(),
	}
	if s.Recorder != nil {
		rec, err := s.Recorder.Record(c.Request.Context(), "", sub, out, s.templateVersion(sub.Template))
		if err != nil {
			s.log.Warn("history write failed", "template", sub.Template, "error", err)
		} else if rec != nil {
			resp.HistoryID = &rec.ID
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) templateVersion(name string) int {
	if t, ok := s.Templates.Get(name); ok {
		return t.Version
	}
	return 0
}

type submitRequest struct {
	Template string         `json:"template"`
	Fields   prompt.Request `json:"fields"`
	Model    string         `json:"model,omitempty"`
}

// submit answers 202 at once; the result lands on the surface snapshot.
func (s *server) submit(c *gin.Context) {
	var in submitRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondError(c, badRequest("invalid JSON body"))
		return
	}
	if strings.TrimSpace(in.Template) == "" {
		s.respondError(c, badRequest("template is required"))
		return
	}
	if _, ok := s.Templates.Get(in.Template); !ok {
		s.respondError(c, fmt.Errorf("%w: %s", prompt.ErrUnknownTemplate, in.Template))
		return
	}
	tk, err := s.Tracker.Submit(c.Request.Context(), c.Param("surface"), pipeline.Submission{
		Template: in.Template,
		Request:  in.Fields,
		Model:    in.Model,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/surfaces/%s", tk.Surface))
	c.JSON(http.StatusAccepted, tk)
}

func (s *server) currentSurface(c *gin.Context) {
	snap, err := s.Tracker.Current(c.Request.Context(), c.Param("surface"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// surfaceEvents streams snapshots for one surface as server-sent events,
// starting with the current one when it exists.
func (s *server) surfaceEvents(c *gin.Context) {
	id := strings.TrimSpace(c.Param("surface"))
	client := s.Hub.NewClient()
	s.Hub.Subscribe(client, realtime.SurfaceChannel(id))
	defer s.Hub.CloseClient(client)

	if snap, err := s.Tracker.Current(c.Request.Context(), id); err == nil {
		select {
		case client.Outbound <- realtime.Message{Channel: realtime.SurfaceChannel(id), Event: realtime.EventSnapshot, Seq: snap.Seq, Data: snap}:
		default:
		}
	}
	s.Hub.Serve(c.Request.Context(), c.Writer, client)
}

func (s *server) listHistory(c *gin.Context) {
	f := history.Filter{
		Template: c.Query("template"),
		Surface:  c.Query("surface"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(c, badRequest("limit must be a non-negative integer"))
			return
		}
		f.Limit = n
	}
	recs, err := s.History.List(dbctx.New(c.Request.Context()), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

func (s *server) getHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, badRequest("id must be a uuid"))
		return
	}
	rec, err := s.History.Get(dbctx.New(c.Request.Context()), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
