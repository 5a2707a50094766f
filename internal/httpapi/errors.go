package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/history"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/apierr"
	"github.com/yungbote/founderflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/founderflow-backend/internal/prompt"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

// neutralMessage is shown for every pipeline failure; code and details say
// what actually went wrong.
const neutralMessage = "couldn't process request"

type errorBody struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// toAPIError maps a pipeline or lookup failure onto status and code.
func toAPIError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, prompt.ErrUnknownTemplate):
		return apierr.NotFound("template_not_found", err)
	case errors.Is(err, gateway.ErrUnknownModel):
		return apierr.NotFound("model_not_found", err)
	case errors.Is(err, surface.ErrNotFound):
		return apierr.NotFound("surface_not_found", err)
	case errors.Is(err, history.ErrNotFound):
		return apierr.NotFound("history_not_found", err)
	case errors.Is(err, surface.ErrEmptySurface):
		return apierr.BadRequest("invalid_request", err)
	case errors.Is(err, surface.ErrClosed):
		return apierr.New(http.StatusServiceUnavailable, "shutting_down", err)
	}

	v := pipeline.Describe(err)
	var out *apierr.Error
	switch v.Kind {
	case pipeline.KindValidation:
		out = apierr.BadRequest("invalid_request", err)
	case pipeline.KindGateway:
		out = gatewayError(err, v)
	case pipeline.KindExtraction:
		out = apierr.New(http.StatusBadGateway, "extraction_failed", err)
	default:
		return apierr.As(err)
	}
	return out.WithDetails(viewDetails(v))
}

func gatewayError(err error, v *pipeline.ErrorView) *apierr.Error {
	switch {
	case v.Timeout:
		return apierr.New(http.StatusGatewayTimeout, "upstream_timeout", err)
	case v.Cause == string(gateway.CauseAuth):
		return apierr.New(http.StatusBadGateway, "upstream_auth", err)
	case v.Cause == string(gateway.CauseRateLimit):
		return apierr.New(http.StatusTooManyRequests, "rate_limited", err)
	default:
		return apierr.New(http.StatusBadGateway, "upstream_error", err)
	}
}

func viewDetails(v *pipeline.ErrorView) map[string]any {
	d := map[string]any{"kind": v.Kind}
	if len(v.Fields) > 0 {
		d["fields"] = v.Fields
	}
	if v.Cause != "" {
		d["cause"] = v.Cause
	}
	if v.Timeout {
		d["timeout"] = true
	}
	if v.StatusCode != 0 {
		d["upstream_status"] = v.StatusCode
	}
	if v.Reason != "" {
		d["reason"] = v.Reason
	}
	if v.Field != "" {
		d["field"] = v.Field
	}
	return d
}

// respondError writes the envelope. Messages of classified failures are
// replaced with the neutral text; the raw error goes to the log only.
func (s *server) respondError(c *gin.Context, err error) {
	ae := toAPIError(err)
	msg := neutralMessage
	switch {
	case ae.Status == http.StatusNotFound, ae.Status == http.StatusServiceUnavailable:
		msg = ae.Error()
	case ae.Status >= 500 && ae.Details == nil:
		msg = "internal server error"
	case ae.Status == http.StatusBadRequest && ae.Details == nil:
		msg = ae.Error()
	}

	log := s.log.With(ctxutil.LogFields(c.Request.Context())...)
	if ae.Status >= 500 {
		log.Warn("request failed", "code", ae.Code, "status", ae.Status, "error", err)
	} else {
		log.Debug("request rejected", "code", ae.Code, "status", ae.Status, "error", err)
	}
	c.AbortWithStatusJSON(ae.Status, errorEnvelope{Error: errorBody{
		Message: msg,
		Code:    ae.Code,
		Details: ae.Details,
	}})
}

func badRequest(msg string) *apierr.Error {
	return apierr.BadRequest("invalid_request", errors.New(msg))
}
