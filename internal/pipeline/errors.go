package pipeline

import (
	"errors"

	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/prompt"
)

const (
	KindValidation = "validation"
	KindConfig     = "config"
	KindGateway    = "gateway"
	KindExtraction = "extraction"
	KindInternal   = "internal"
)

// ErrorView is the serializable form of a run failure.
type ErrorView struct {
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields,omitempty"`
	Cause      string   `json:"cause,omitempty"`
	Timeout    bool     `json:"timeout,omitempty"`
	StatusCode int      `json:"status_code,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Field      string   `json:"field,omitempty"`
}

// Describe classifies err into one of the Kind* values. It returns nil for
// a nil error.
func Describe(err error) *ErrorView {
	if err == nil {
		return nil
	}
	v := &ErrorView{Kind: KindInternal, Message: err.Error()}

	var ve *prompt.ValidationError
	var ge *gateway.Error
	var xe *extract.Error
	switch {
	case errors.As(err, &ve):
		v.Kind = KindValidation
		v.Fields = ve.Fields
	case errors.Is(err, prompt.ErrUnknownTemplate), errors.Is(err, gateway.ErrUnknownModel):
		v.Kind = KindConfig
	case errors.As(err, &ge):
		v.Kind = KindGateway
		v.Cause = string(ge.Cause)
		v.Timeout = ge.Timeout
		v.StatusCode = ge.StatusCode
	case errors.As(err, &xe):
		v.Kind = KindExtraction
		v.Reason = xe.Reason
		v.Field = xe.Field
	}
	return v
}
