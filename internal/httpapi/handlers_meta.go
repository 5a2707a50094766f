package httpapi

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/founderflow-backend/internal/platform/apierr"
	"github.com/yungbote/founderflow-backend/internal/prompt"
)

func (s *server) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *server) readyz(c *gin.Context) {
	if s.Ready != nil {
		if err := s.Ready(c.Request.Context()); err != nil {
			s.log.Warn("readiness check failed", "error", err)
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

type fieldView struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type templateView struct {
	Name    string         `json:"name"`
	Version int            `json:"version"`
	Title   string         `json:"title"`
	Fields  []fieldView    `json:"fields"`
	Schema  map[string]any `json:"schema"`
}

func viewTemplate(t *prompt.Template) templateView {
	fields := make([]fieldView, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, fieldView{Key: f.Key, Label: f.Label, Suggestions: f.Suggestions})
	}
	return templateView{
		Name:    t.Name,
		Version: t.Version,
		Title:   t.Title,
		Fields:  fields,
		Schema:  t.JSONSchema(),
	}
}

func (s *server) listTemplates(c *gin.Context) {
	list := s.Templates.List()
	out := make([]templateView, 0, len(list))
	for _, t := range list {
		out = append(out, viewTemplate(t))
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

func (s *server) lookupTemplate(c *gin.Context) (*prompt.Template, bool) {
	name := c.Param("template")
	t, ok := s.Templates.Get(name)
	if !ok {
		s.respondError(c, fmt.Errorf("%w: %s", prompt.ErrUnknownTemplate, name))
		return nil, false
	}
	return t, true
}

func (s *server) getTemplate(c *gin.Context) {
	t, ok := s.lookupTemplate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewTemplate(t))
}

type fieldsRequest struct {
	Fields prompt.Request `json:"fields"`
	Model  string         `json:"model,omitempty"`
}

// renderTemplate returns the exact instruction the model would receive.
func (s *server) renderTemplate(c *gin.Context) {
	t, ok := s.lookupTemplate(c)
	if !ok {
		return
	}
	var in fieldsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondError(c, badRequest("invalid JSON body"))
		return
	}
	p, err := t.Render(in.Fields)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": p.Template, "version": p.Version, "instruction": p.Text})
}

// surprise fills the empty fields with random suggestions. An empty body is
// allowed.
func (s *server) surprise(c *gin.Context) {
	t, ok := s.lookupTemplate(c)
	if !ok {
		return
	}
	var in fieldsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			s.respondError(c, badRequest("invalid JSON body"))
			return
		}
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	c.JSON(http.StatusOK, gin.H{"fields": t.Surprise(rnd, in.Fields)})
}

func (s *server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.Gateway.Models()})
}

func notFound(code, msg string) *apierr.Error {
	return apierr.NotFound(code, errors.New(msg))
}
