package handler

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-functions/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-functions/pkg/metrics"
)

// getRequestID reads the request id from the request or, once the RequestID
// middleware ran, from the response
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// functionName is the function behind the matched route, e.g. "start-bot".
// Anything else is reported as fnUnmatched so the request path never becomes
// a label value.
func functionName(c echo.Context) string {
	p := c.Path()
	if !strings.HasPrefix(p, functionsPrefix+"/") {
		return fnUnmatched
	}
	name := path.Base(p)
	if _, ok := functionNames[name]; !ok {
		return fnUnmatched
	}
	return name
}

// callerFields adds the authenticated caller to a log entry
func callerFields(c echo.Context, fields ...zap.Field) []zap.Field {
	if claims, ok := middleware.GetClaims(c); ok {
		fields = append(fields, zap.String("subject", claims.Subject), zap.String("role", claims.Role))
	}
	return fields
}

// HandleSuccess writes data as a 200 JSON response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	if logger != nil {
		logger.Info("http.response.success", callerFields(c,
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)...)
	}
	metrics.RecordFunctionRequest(functionName(c), strconv.Itoa(http.StatusOK))

	return c.JSON(http.StatusOK, data)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err)

	if logger != nil {
		logger.Error("http.response.error", callerFields(c,
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.String("kind", string(appErr.Kind)),
			zap.Int("status", appErr.HTTPCode),
			zap.Error(err),
		)...)
	}
	metrics.RecordFunctionRequest(functionName(c), strconv.Itoa(appErr.HTTPCode))

	body := common.ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
		Code:    appErr.Code.String(),
	}
	return c.JSON(appErr.HTTPCode, body)
}

// NewHTTPErrorHandler renders errors returned by middleware and unknown routes
// with the same body as the handlers
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(toAppError(err).HTTPCode)
			return
		}
		_ = HandleError(logger, c, err)
	}
}

// toAppError maps any error to the AppError that is rendered for it
func toAppError(err error) errors.AppError {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		kind := errors.KindValidation
		if httpErr.Code >= http.StatusInternalServerError {
			kind = errors.KindInternal
		}
		return errors.AppError{
			Raw:      err,
			HTTPCode: httpErr.Code,
			Code:     errors.ErrorCode(fmt.Sprintf("HTTP_%d", httpErr.Code)),
			Kind:     kind,
			Message:  fmt.Sprint(httpErr.Message),
		}
	}

	return errors.ErrInternal(err)
}

// asClientError renders every non-configuration failure as 400
func asClientError(err error) error {
	appErr := toAppError(err)
	if appErr.Kind == errors.KindConfiguration {
		return appErr
	}
	return appErr.WithStatus(http.StatusBadRequest)
}
