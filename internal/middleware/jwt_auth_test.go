package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]*models.JwtCustomClaims

func (s stubParser) Parse(_ context.Context, raw string) (*models.JwtCustomClaims, error) {
	if claims, ok := s[raw]; ok {
		return claims, nil
	}
	return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
}

func run(t *testing.T, header string) (*models.JwtCustomClaims, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen *models.JwtCustomClaims
	mw := JWTAuthMiddleware(stubParser{"good": {UserID: 9}})
	err := mw(func(c echo.Context) error {
		seen = Claims(c)
		return nil
	})(c)
	return seen, err
}

func TestJWTAuthMiddleware(t *testing.T) {
	claims, err := run(t, "")
	require.NoError(t, err)
	assert.Nil(t, claims)

	claims, err = run(t, "Bearer good")
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, uint(9), claims.UserID)

	claims, err = run(t, "bearer good")
	require.NoError(t, err)
	assert.NotNil(t, claims)

	for _, header := range []string{"Bearer bad", "Token good", "Bearer"} {
		_, err = run(t, header)
		var he *echo.HTTPError
		require.True(t, errors.As(err, &he), header)
		assert.Equal(t, http.StatusUnauthorized, he.Code, header)
	}
}
