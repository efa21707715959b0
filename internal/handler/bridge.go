package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"reddit-bridge-wrapper/internal/metrics"
	"reddit-bridge-wrapper/internal/model"
	"reddit-bridge-wrapper/internal/service"
)

// Caller-facing error messages.
const (
	msgMethodNotAllowed = "Method not allowed. Use POST."
	msgUnauthorised     = "Unauthorised."
	msgMisconfigured    = "Server misconfigured: REDDIT_BRIDGE_URL not set."
	msgInvalidJSON      = "Request body must be valid JSON."
	msgInvalidFields    = "Body must include string fields 'subreddit' and 'query'."
	msgUpstreamError    = "Upstream bridge error."
	msgUnexpected       = "Unexpected server error."
	msgUnknownError     = "Unknown error"
)

// bypassParamPattern matches a bypass secret passed as a query parameter in URLs embedded in error messages.
var bypassParamPattern = regexp.MustCompile(`(?i)(x-vercel-protection-bypass=)[^&\s"]+`)

// BridgeHandler serves the search endpoint that forwards to the bridge.
type BridgeHandler struct {
	forwarder *service.Forwarder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewBridgeHandler creates a BridgeHandler. The metrics parameter is optional.
func NewBridgeHandler(f *service.Forwarder, logger *slog.Logger, m *metrics.Metrics) *BridgeHandler {
	return &BridgeHandler{
		forwarder: f,
		logger:    logger.With("component", "bridge_handler"),
		metrics:   m,
	}
}

// Handle forwards a POSTed search to the bridge and relays the outcome as
// JSON. It always writes exactly one response, including after a panic.
func (h *BridgeHandler) Handle(c echo.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = h.internalError(c, panicDetail(r))
		}
	}()

	req := c.Request()
	if req.Method != http.MethodPost {
		h.metrics.ObserveOutcome(metrics.OutcomeMethodNotAllowed)
		c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
		return c.JSON(http.StatusMethodNotAllowed, model.ErrorResponse{Error: msgMethodNotAllowed})
	}

	// A body over the size limit is echo's 413, as when Content-Length
	// announces it up front. Any other unreadable body is reported as
	// invalid JSON, after the auth and configuration checks.
	body, readErr := io.ReadAll(req.Body)
	if readErr != nil {
		var he *echo.HTTPError
		if errors.As(readErr, &he) {
			h.logger.Warn("request body rejected", "status", he.Code, "remote_ip", c.RealIP())
			return he
		}
		h.logger.Debug("reading request body", "err", readErr)
		body = nil
	}

	res, err := h.forwarder.Forward(req.Context(), req.Header, body)
	if err != nil {
		return h.mapError(c, err)
	}

	if !res.OK() {
		h.metrics.ObserveOutcome(metrics.OutcomeUpstreamError)
		h.logger.Error("bridge returned failure", "status", res.StatusCode)
		return c.JSON(http.StatusBadGateway, model.UpstreamErrorResponse{
			Error:  msgUpstreamError,
			Status: res.StatusCode,
			Detail: res.Data,
		})
	}

	h.metrics.ObserveOutcome(metrics.OutcomeOK)
	return c.JSON(http.StatusOK, model.ForwardResponse{
		OK:           true,
		BridgeStatus: res.StatusCode,
		BridgeURL:    h.forwarder.BridgeURL(),
		Data:         res.Data,
	})
}

func (h *BridgeHandler) mapError(c echo.Context, err error) error {
	var (
		status  int
		msg     string
		outcome string
	)
	level := slog.LevelWarn
	switch {
	case errors.Is(err, service.ErrUnauthorised):
		status, msg, outcome = http.StatusUnauthorized, msgUnauthorised, metrics.OutcomeUnauthorised
	case errors.Is(err, service.ErrBridgeURLNotSet):
		status, msg, outcome = http.StatusInternalServerError, msgMisconfigured, metrics.OutcomeMisconfigured
		level = slog.LevelError
	case errors.Is(err, service.ErrInvalidJSON):
		status, msg, outcome = http.StatusBadRequest, msgInvalidJSON, metrics.OutcomeInvalidJSON
	case errors.Is(err, service.ErrInvalidFields):
		status, msg, outcome = http.StatusBadRequest, msgInvalidFields, metrics.OutcomeInvalidFields
	default:
		return h.internalError(c, err.Error())
	}

	h.metrics.ObserveOutcome(outcome)
	h.logger.Log(c.Request().Context(), level, "rejected request",
		"status", status,
		"reason", err.Error(),
		"remote_ip", c.RealIP(),
	)
	return c.JSON(status, model.ErrorResponse{Error: msg})
}

// internalError writes the catch-all 500 with a redacted detail.
func (h *BridgeHandler) internalError(c echo.Context, detail string) error {
	detail = h.sanitize(detail)
	if detail == "" {
		detail = msgUnknownError
	}

	h.metrics.ObserveOutcome(metrics.OutcomeInternalError)
	h.logger.Error("forward failed", "err", detail)

	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusInternalServerError, model.InternalErrorResponse{
		Error:  msgUnexpected,
		Detail: detail,
	})
}

// sanitize redacts bypass query parameters and configured secrets from msg.
func (h *BridgeHandler) sanitize(msg string) string {
	msg = bypassParamPattern.ReplaceAllString(msg, "${1}[REDACTED]")
	if h.forwarder != nil {
		msg = h.forwarder.Redact(msg)
	}
	return msg
}

func panicDetail(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
