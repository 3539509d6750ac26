package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// Code is the stable machine-readable error code callers pattern-match on.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInsufficientData   Code = "INSUFFICIENT_DATA"
	CodeInsufficientSample Code = "INSUFFICIENT_SAMPLE"
	CodeModelUnavailable   Code = "MODEL_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// CalibrationDriftWarning is the non-fatal warning attached to results whose
// confidence falls below the configured floor. It never blocks a result.
const CalibrationDriftWarning = "CALIBRATION_DRIFT_WARNING"

// AppError wraps an errbuilder error with the scoring-level code and the HTTP
// status the transport shim should use. Scoring components return these as
// values; nothing is raised across the component boundary.
type AppError struct {
	*errbuilder.ErrBuilder
	Code       Code      `json:"code"`
	HTTPStatus int       `json:"http_status"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

func newAppError(builder *errbuilder.ErrBuilder, code Code, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Code:       code,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError reports malformed caller input. Recoverable by
// re-submitting a corrected request.
func NewValidationError(message string, details map[string]string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(details) > 0 {
		errMap := errbuilder.ErrorMap{}
		for field, msg := range details {
			errMap.Set(field, errors.New(msg))
		}
		builder = builder.WithDetails(errbuilder.NewErrDetails(errMap))
	}

	return newAppError(builder, CodeValidation, http.StatusBadRequest)
}

// NewInsufficientDataError rejects a submission with too many missing answers
// to score without false confidence.
func NewInsufficientDataError(missing, allowed int) *AppError {
	errMap := errbuilder.ErrorMap{}
	errMap.Set("missing_answers", fmt.Errorf("%d missing, at most %d allowed", missing, allowed))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("too many missing answers to score").
		WithDetails(errbuilder.NewErrDetails(errMap))

	return newAppError(builder, CodeInsufficientData, http.StatusBadRequest)
}

// NewInsufficientSampleError reports an organizational aggregation below the
// anonymity/validity gate. Recoverable by waiting for more responses.
func NewInsufficientSampleError(have, need int) *AppError {
	errMap := errbuilder.ErrorMap{}
	errMap.Set("sample_size", fmt.Errorf("have %d responses, need %d", have, need))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("sample below minimum for organizational snapshot").
		WithDetails(errbuilder.NewErrDetails(errMap))

	return newAppError(builder, CodeInsufficientSample, http.StatusUnprocessableEntity)
}

// NewModelUnavailableError reports a failed model-artifact load. Fatal to this
// process instance; the caller should retry elsewhere or fail the request.
func NewModelUnavailableError(artifact string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("model artifact %q unavailable", artifact))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CodeModelUnavailable, http.StatusServiceUnavailable)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CodeInternal, http.StatusInternalServerError)
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ToAppError converts any error to an AppError for uniform transport mapping.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return newAppError(ebErr, CodeInternal, http.StatusInternalServerError)
	}
	return NewInternalError("an unexpected error occurred", err)
}

// ErrorHandler is the gin middleware that maps typed scoring errors to
// structured HTTP responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		slog.Warn("request failed",
			"code", appErr.Code,
			"http_status", appErr.HTTPStatus,
			"path", c.Request.URL.Path,
			"msg", appErr.ErrBuilder.Msg,
		)
		c.JSON(appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.ErrBuilder.Msg,
		})
	}
}
