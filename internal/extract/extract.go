// Package extract pulls the structured JSON payload out of free-form model
// replies and checks it against a template schema.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/founderflow-backend/internal/schema"
)

const (
	ReasonUnparseable    = "unparseable"
	ReasonSchemaMismatch = "schema-mismatch"
)

// Error is returned when no conforming payload could be produced. Field is
// set for schema mismatches.
type Error struct {
	Reason string
	Field  string
	Err    error
}

func (e *Error) Error() string {
	msg := "extract: " + e.Reason
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

var errNoObject = errors.New("no JSON object in reply")

// Result is the decoded payload, unchanged. Members the schema does not
// declare are kept.
type Result map[string]any

type Strategy string

const (
	// Greedy takes everything from the first '{' to the last '}'.
	Greedy Strategy = "greedy"
	// Balanced takes the first brace-balanced top-level object that parses.
	Balanced Strategy = "balanced"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Greedy:
		return Greedy, nil
	case Balanced:
		return Balanced, nil
	default:
		return "", fmt.Errorf("unknown extraction strategy %q", s)
	}
}

type Extractor struct {
	strategy Strategy
}

func New(strategy Strategy) *Extractor {
	if strategy == "" {
		strategy = Greedy
	}
	return &Extractor{strategy: strategy}
}

func (x *Extractor) Strategy() Strategy { return x.strategy }

// Extract returns the payload or an *Error. It never returns a partial
// result.
func (x *Extractor) Extract(reply string, s schema.Schema) (Result, error) {
	if x.strategy == Balanced {
		return extractBalanced(reply, s)
	}
	return extractGreedy(reply, s)
}

// Extract runs the default greedy strategy.
func Extract(reply string, s schema.Schema) (Result, error) {
	return extractGreedy(reply, s)
}

func extractGreedy(reply string, s schema.Schema) (Result, error) {
	span, ok := GreedySpan(reply)
	if !ok {
		return nil, &Error{Reason: ReasonUnparseable, Err: errNoObject}
	}
	obj, err := decodeObject(span)
	if err != nil {
		return nil, &Error{Reason: ReasonUnparseable, Err: err}
	}
	if err := check(obj, s); err != nil {
		return nil, err
	}
	return Result(obj), nil
}

func extractBalanced(reply string, s schema.Schema) (Result, error) {
	var firstMismatch error
	var firstParseErr error
	for _, cand := range BalancedSpans(reply) {
		obj, err := decodeObject(cand)
		if err != nil {
			if firstParseErr == nil {
				firstParseErr = err
			}
			continue
		}
		if err := check(obj, s); err != nil {
			if firstMismatch == nil {
				firstMismatch = err
			}
			continue
		}
		return Result(obj), nil
	}
	if firstMismatch != nil {
		return nil, firstMismatch
	}
	if firstParseErr == nil {
		firstParseErr = errNoObject
	}
	return nil, &Error{Reason: ReasonUnparseable, Err: firstParseErr}
}

// GreedySpan returns reply[first '{' : last '}'+1].
func GreedySpan(reply string) (string, bool) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(reply, '}')
	if end < start {
		return "", false
	}
	return reply[start : end+1], true
}

func decodeObject(span string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNoObject
	}
	return obj, nil
}

func check(obj map[string]any, s schema.Schema) error {
	if err := s.Validate(obj); err != nil {
		var fe *schema.FieldError
		field := ""
		if errors.As(err, &fe) {
			field = fe.Path
		}
		return &Error{Reason: ReasonSchemaMismatch, Field: field, Err: err}
	}
	return nil
}
