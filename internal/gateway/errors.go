package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
)

type Cause string

const (
	CauseNetwork   Cause = "network"
	CauseAuth      Cause = "auth"
	CauseRateLimit Cause = "rate-limit"
	CauseServer    Cause = "server"
	CauseUnknown   Cause = "unknown"
)

// ErrUnknownModel is returned for a model id with no route.
var ErrUnknownModel = errors.New("unknown model")

// Error is a failed upstream call. Timeout is set when the bounded wait
// expired; Cause is then network.
type Error struct {
	Cause      Cause
	Timeout    bool
	StatusCode int
	Model      string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("gateway: %s", e.Cause)
	if e.Timeout {
		msg += " (timeout)"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Model != "" {
		msg += " model=" + e.Model
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

type statusCoder interface {
	HTTPStatusCode() int
}

// Classify maps an engine error onto a Cause.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	out := &Error{Cause: CauseUnknown, Err: err}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.Cause, out.Timeout = CauseNetwork, true
		return out
	case errors.Is(err, context.Canceled):
		out.Cause = CauseNetwork
		return out
	case errors.Is(err, engine.ErrEmptyReply):
		return out
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		out.StatusCode = sc.HTTPStatusCode()
		out.Cause = causeForStatus(out.StatusCode)
		return out
	}

	var ne net.Error
	if errors.As(err, &ne) {
		out.Cause = CauseNetwork
		out.Timeout = ne.Timeout()
		return out
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		out.Cause = CauseNetwork
	}
	return out
}

func causeForStatus(status int) Cause {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CauseAuth
	case status == http.StatusTooManyRequests:
		return CauseRateLimit
	case status >= 500 && status <= 599:
		return CauseServer
	default:
		return CauseUnknown
	}
}
