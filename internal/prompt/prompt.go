// Package prompt turns form input into a single deterministic instruction
// for a text-generation model.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/founderflow-backend/internal/schema"
)

// ErrUnknownTemplate is returned by Registry.Build for a name that was never
// registered. It is a configuration fault, not a request problem.
var ErrUnknownTemplate = errors.New("unknown prompt template")

// Request maps template field keys to user-supplied values. Keys the
// template does not declare are ignored.
type Request map[string]string

// Clone returns an independent copy. Submissions keep a clone so later edits
// to the caller's map never leak into an in-flight request.
func (r Request) Clone() Request {
	if r == nil {
		return Request{}
	}
	out := make(Request, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ValidationError reports a request in which every declared field is empty.
type ValidationError struct {
	Template string
	Fields   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: at least one of %s must be provided", e.Template, strings.Join(e.Fields, ", "))
}

// Prompt is the rendered instruction plus what the extractor needs to check
// the reply.
type Prompt struct {
	Template string
	Version  int
	Text     string
	Schema   schema.Schema
}
