package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/models"
	"github.com/mood-map/api-go/screener"
	"github.com/mood-map/api-go/services"
	"github.com/mood-map/api-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) ScreenText(text string) screener.Result {
	args := m.Called(text)
	return args.Get(0).(screener.Result)
}

func (m *MockEngine) SubmitPost(ctx context.Context, in services.SubmitPostInput, now time.Time) (*services.SubmitResult, error) {
	args := m.Called(ctx, in, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmitResult), args.Error(1)
}

func (m *MockEngine) FileReport(ctx context.Context, reporterID string, postID uint, now time.Time) (*services.ReportResult, error) {
	args := m.Called(ctx, reporterID, postID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReportResult), args.Error(1)
}

func (m *MockEngine) ComputeStreak(ctx context.Context, identityID string, now time.Time) (int, error) {
	args := m.Called(ctx, identityID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockEngine) Status(ctx context.Context, identityID string, now time.Time) (*services.IdentityStatus, error) {
	args := m.Called(ctx, identityID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IdentityStatus), args.Error(1)
}

func (m *MockEngine) VisiblePins(ctx context.Context, q services.PinQuery) ([]models.Post, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockEngine) Pin(ctx context.Context, postID uint) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockEngine) ResetModeration(ctx context.Context, identityID, actorID string, now time.Time) error {
	args := m.Called(ctx, identityID, actorID, now)
	return args.Error(0)
}

var _ ModerationEngine = (*MockEngine)(nil)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newRouter(engine ModerationEngine, identity string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		utils.SetIdentity(c, &utils.IdentityClaims{IdentityID: identity, Role: "admin"})
		c.Next()
	})

	pins := NewPinController(engine)
	r.POST("/pins", pins.CreatePin)
	r.GET("/pins", pins.ListPins)
	r.GET("/pins/:id", pins.GetPin)
	r.POST("/pins/:id/report", pins.ReportPin)
	r.POST("/qc/check", NewScreeningController(engine).CheckText)
	me := NewIdentityController(engine)
	r.GET("/me", me.GetMe)
	r.GET("/me/streak", me.GetStreak)
	r.POST("/admin/identities/:id/reset-moderation", NewAdminController(engine).ResetModeration)
	return r
}

func perform(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreatePin(t *testing.T) {
	engine := new(MockEngine)
	r := newRouter(engine, "anon-1")

	want := services.SubmitPostInput{
		AuthorID:  "anon-1",
		Mood:      models.MoodHyped,
		Note:      "quad is packed",
		Latitude:  39.95,
		Longitude: -75.19,
	}
	engine.On("SubmitPost", mock.Anything, want, mock.Anything).
		Return(&services.SubmitResult{Post: &models.Post{ID: 7, Mood: models.MoodHyped}, Remaining: 4}, nil)

	w := perform(r, http.MethodPost, "/pins", gin.H{"mood": "HYPED", "message": "quad is packed", "lat": 39.95, "lng": -75.19})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool        `json:"success"`
		Data    models.Post `json:"data"`
		Meta    struct {
			Remaining int `json:"remaining"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, uint(7), resp.Data.ID)
	assert.Equal(t, 4, resp.Meta.Remaining)
	engine.AssertExpectations(t)
}

func TestCreatePinBindingErrors(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{name: "unknown mood", body: gin.H{"mood": "ANGRY", "lat": 1.0, "lng": 1.0}},
		{name: "missing lat", body: gin.H{"mood": "MID", "lng": 1.0}},
		{name: "lat out of range", body: gin.H{"mood": "MID", "lat": 95.0, "lng": 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockEngine)
			w := perform(newRouter(engine, "anon-1"), http.MethodPost, "/pins", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apperrors.ErrValidation, decodeError(t, w).Code)
			engine.AssertNotCalled(t, "SubmitPost", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreatePinZeroCoordinates(t *testing.T) {
	engine := new(MockEngine)
	engine.On("SubmitPost", mock.Anything, mock.MatchedBy(func(in services.SubmitPostInput) bool {
		return in.Latitude == 0 && in.Longitude == 0
	}), mock.Anything).Return(&services.SubmitResult{Post: &models.Post{ID: 1}}, nil)

	w := perform(newRouter(engine, "anon-1"), http.MethodPost, "/pins", gin.H{"mood": "MID", "lat": 0, "lng": 0})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreatePinEngineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		crisis bool
	}{
		{name: "quota", err: apperrors.New(apperrors.ErrQuotaExceeded, "Daily pin limit reached"), status: http.StatusTooManyRequests},
		{name: "policy", err: apperrors.New(apperrors.ErrPolicyViolation, screener.PolicyViolationMessage), status: http.StatusUnprocessableEntity},
		{name: "crisis", err: apperrors.New(apperrors.ErrCrisisFlag, "call 988"), status: http.StatusUnprocessableEntity, crisis: true},
		{name: "suspended", err: apperrors.New(apperrors.ErrIdentitySuspended, "suspended"), status: http.StatusForbidden},
		{name: "storage", err: apperrors.Storage("create post", errors.New("disk full")), status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockEngine)
			engine.On("SubmitPost", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := perform(newRouter(engine, "anon-1"), http.MethodPost, "/pins", gin.H{"mood": "TIRED", "lat": 1.0, "lng": 1.0})

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.crisis, resp.Crisis)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestListPins(t *testing.T) {
	engine := new(MockEngine)
	engine.On("VisiblePins", mock.Anything, services.PinQuery{Latitude: 39.95, Longitude: -75.19, RadiusKm: 2, Limit: 10}).
		Return([]models.Post{{ID: 1}, {ID: 2}}, nil)
	engine.On("VisiblePins", mock.Anything, services.PinQuery{}).Return(nil, nil)
	r := newRouter(engine, "anon-1")

	w := perform(r, http.MethodGet, "/pins?lat=39.95&lng=-75.19&radius=2&limit=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = perform(r, http.MethodGet, "/pins", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pins":[]`)

	w = perform(r, http.MethodGet, "/pins?radius=2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/pins?limit=501", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPin(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Pin", mock.Anything, uint(3)).Return(&models.Post{ID: 3}, nil)
	engine.On("Pin", mock.Anything, uint(4)).Return(nil, apperrors.New(apperrors.ErrNotFound, "pin not found"))
	r := newRouter(engine, "anon-1")

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/pins/3", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/pins/4", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/pins/abc", nil).Code)
}

func TestReportPin(t *testing.T) {
	engine := new(MockEngine)
	engine.On("FileReport", mock.Anything, "anon-1", uint(9), mock.Anything).
		Return(&services.ReportResult{PostID: 9, ReportCount: 3, Visibility: models.Hidden, PostHidden: true, AuthorID: "author"}, nil)
	engine.On("FileReport", mock.Anything, "anon-1", uint(10), mock.Anything).
		Return(nil, apperrors.New(apperrors.ErrDuplicateReport, "You have already reported this pin"))
	r := newRouter(engine, "anon-1")

	w := perform(r, http.MethodPost, "/pins/9/report", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"visibility":"hidden"`)
	assert.NotContains(t, w.Body.String(), "author")

	w = perform(r, http.MethodPost, "/pins/10/report", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckText(t *testing.T) {
	engine := new(MockEngine)
	engine.On("ScreenText", "you are an idiot").Return(screener.Result{
		Verdict: screener.PolicyViolation, Blocked: true, Message: screener.PolicyViolationMessage,
	})

	w := perform(newRouter(engine, "anon-1"), http.MethodPost, "/qc/check", gin.H{"text": "you are an idiot"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verdict":"policy_violation"`)
	assert.Contains(t, w.Body.String(), `"blocked":true`)
}

func TestIdentityEndpoints(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Status", mock.Anything, "anon-1", mock.Anything).
		Return(&services.IdentityStatus{IdentityID: "anon-1", Streak: 2, DailyLimit: 5, Remaining: 3}, nil)
	engine.On("ComputeStreak", mock.Anything, "anon-1", mock.Anything).Return(2, nil)
	r := newRouter(engine, "anon-1")

	w := perform(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"remaining":3`)

	w = perform(r, http.MethodGet, "/me/streak", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"streak":2`)
}

func TestResetModeration(t *testing.T) {
	engine := new(MockEngine)
	engine.On("ResetModeration", mock.Anything, "anon-9", "mod-1", mock.Anything).Return(nil)
	engine.On("ResetModeration", mock.Anything, "ghost", "mod-1", mock.Anything).
		Return(apperrors.New(apperrors.ErrNotFound, "identity not found"))
	r := newRouter(engine, "mod-1")

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/admin/identities/anon-9/reset-moderation", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPost, "/admin/identities/ghost/reset-moderation", nil).Code)
	engine.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/health", NewHealthController(db).Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
