package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/pkg/jwt"
)

func runAuth(t *testing.T, manager *jwt.Manager, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/start-bot", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	err := EchoAuth(manager)(func(c echo.Context) error { return nil })(c)
	return c, err
}

func TestEchoAuth(t *testing.T) {
	manager := jwt.NewManager("secret")
	token, err := manager.GenerateToken("user-1", "authenticated", time.Minute)
	require.NoError(t, err)

	c, err := runAuth(t, manager, "Bearer "+token)
	require.NoError(t, err)
	claims, ok := GetClaims(c)
	require.True(t, ok)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestEchoAuth_Missing(t *testing.T) {
	_, err := runAuth(t, jwt.NewManager("secret"), "")
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestEchoAuth_Invalid(t *testing.T) {
	_, err := runAuth(t, jwt.NewManager("secret"), "Bearer not-a-token")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode)
	assert.Equal(t, apperrors.ErrorCode_AUTH_INVALID_TOKEN, appErr.Code)
}
