package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestIdentityRoundTripThroughContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetIdentity(c))

	SetIdentity(c, &IdentityClaims{IdentityID: "pennkey-abc", Role: "admin"})
	got := GetIdentity(c)
	require.NotNil(t, got)
	assert.Equal(t, "pennkey-abc", got.IdentityID)
	assert.True(t, got.HasRole("admin"))
	assert.False(t, got.HasRole("moderator"))
	assert.False(t, got.HasRole(""))
	assert.False(t, (*IdentityClaims)(nil).HasRole("admin"))

	c.Set(string(IdentityContextKey), "not claims")
	assert.Nil(t, GetIdentity(c))
}

func TestInitLoggerFallsBackToInfo(t *testing.T) {
	logger, err := InitLogger("nonsense")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = InitLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, logger, zap.L())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
