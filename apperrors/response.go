package apperrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Success bool      `json:"success"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Crisis  bool      `json:"crisis,omitempty"`
	Error   string    `json:"error,omitempty"`
}

var errorStatusMap = map[ErrorCode]int{
	ErrInternal: http.StatusInternalServerError,
	ErrStorage:  http.StatusServiceUnavailable,
	ErrTimeout:  http.StatusGatewayTimeout,

	ErrUnauthorized: http.StatusUnauthorized,
	ErrForbidden:    http.StatusForbidden,
	ErrInvalidToken: http.StatusUnauthorized,

	ErrBadRequest: http.StatusBadRequest,
	ErrValidation: http.StatusBadRequest,
	ErrNotFound:   http.StatusNotFound,

	ErrPolicyViolation:   http.StatusUnprocessableEntity,
	ErrCrisisFlag:        http.StatusUnprocessableEntity,
	ErrQuotaExceeded:     http.StatusTooManyRequests,
	ErrDuplicateReport:   http.StatusConflict,
	ErrReporterSuspended: http.StatusForbidden,
	ErrIdentitySuspended: http.StatusForbidden,
}

// StatusOf maps an error to the HTTP status it should be reported with.
func StatusOf(err error) int {
	if status, ok := errorStatusMap[CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError writes err as a JSON error body. Causes of server-side
// failures are not echoed back to the client.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    ErrInternal,
			Message: "Internal Server Error",
		})
		return
	}

	status := StatusOf(appErr)
	resp := ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Crisis:  appErr.Code == ErrCrisisFlag,
	}
	if appErr.Err != nil && status < http.StatusInternalServerError {
		resp.Error = appErr.Err.Error()
	}
	c.JSON(status, resp)
}
