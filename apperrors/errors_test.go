package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := New(ErrQuotaExceeded, "daily limit reached")
	wrapped := fmt.Errorf("submit: %w", base)

	assert.Equal(t, ErrQuotaExceeded, CodeOf(wrapped))
	assert.True(t, Is(wrapped, ErrQuotaExceeded))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain")))
}

func TestStorageKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("load post", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrStorage, err.Code)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCrisis bool
		wantDetail bool
	}{
		{name: "validation", err: Wrap(ErrValidation, "bad input", errors.New("lat out of range")), wantStatus: http.StatusBadRequest, wantDetail: true},
		{name: "policy", err: New(ErrPolicyViolation, "inappropriate"), wantStatus: http.StatusUnprocessableEntity},
		{name: "crisis", err: New(ErrCrisisFlag, "call 988"), wantStatus: http.StatusUnprocessableEntity, wantCrisis: true},
		{name: "quota", err: New(ErrQuotaExceeded, "come back tomorrow"), wantStatus: http.StatusTooManyRequests},
		{name: "duplicate", err: New(ErrDuplicateReport, "already reported"), wantStatus: http.StatusConflict},
		{name: "suspended reporter", err: New(ErrReporterSuspended, "suspended"), wantStatus: http.StatusForbidden},
		{name: "not found", err: New(ErrNotFound, "pin not found"), wantStatus: http.StatusNotFound},
		{name: "storage hides cause", err: Storage("load", errors.New("dial tcp secret-host")), wantStatus: http.StatusServiceUnavailable},
		{name: "unknown error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCrisis, resp.Crisis)
			assert.Equal(t, tt.wantDetail, resp.Error != "")
		})
	}
}
