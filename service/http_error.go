package service

import (
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler installs the JSON error handler on e.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps maps error codes to HTTP statuses. Unlisted codes become 500.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	return map[string]int{
		ErrBadParameter:        http.StatusBadRequest,
		ErrEntityNotFound:      http.StatusNotFound,
		ErrMissingBeanProvider: http.StatusNotFound,
		ErrIllegalSubsystem:    http.StatusForbidden,
		ErrRejected:            http.StatusTooManyRequests,
		ErrServiceUnavailable:  http.StatusServiceUnavailable,
		ErrCircuitOpen:         http.StatusServiceUnavailable,
		ErrTimeout:             http.StatusGatewayTimeout,
		ErrInternalServerError: http.StatusInternalServerError,
	}
}

// HTTPErrorHandler renders errors returned by echo handlers as ErrResponse.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       log.With(logger, "component", "http_error_handler"),
	}
}

func (h *HTTPErrorHandler) statusOf(code string) int {
	if status, ok := h.errorCodeToHTTPStatusCodeMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// fromEchoError converts routing and binding errors raised by echo itself. Request validation
// failures reported by openapi3filter are classified as bad_parameter.
func fromEchoError(he *echo.HTTPError, err error) *MyError {
	code := ErrInternalServerError
	if he.Code >= 400 && he.Code < 500 {
		code = ErrBadParameter
	}
	var requestError *openapi3filter.RequestError
	if errors.As(he.Internal, &requestError) {
		code = ErrBadParameter
	}
	msg, _ := he.Message.(string)
	return NewMyError(code, msg, err)
}

// Handler handles error returned by echo Handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		myErr      *MyError
		statusCode int
	)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		myErr = fromEchoError(he, err)
		statusCode = he.Code
	} else {
		myErr = ToMyError(err)
		if myErr == nil {
			myErr = NewMyError(ErrInternalServerError, "an internal server error has occurred", err)
		}
		statusCode = h.statusOf(myErr.Code)
	}

	logLevel := level.Warn
	if statusCode >= http.StatusInternalServerError {
		logLevel = level.Error
	}
	logLevel(h.logger).Log(
		"msg", "HTTP request error",
		"path", c.Request().URL.Path,
		"status", statusCode,
		"err", err,
	)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = c.JSON(statusCode, ErrResponse{Error: myErr})
}

// ErrResponse is the JSON error envelope.
type ErrResponse struct {
	Error *MyError `json:"error,omitempty"`
}
