package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unifreelancer/academy/internal/infrastructure/auth"
	"github.com/unifreelancer/academy/internal/infrastructure/logging"
	"go.uber.org/zap"
)

func serve(h echo.HandlerFunc, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	return serveRequest(httptest.NewRequest(http.MethodGet, "/", nil), h, mw...)
}

func serveRequest(req *http.Request, h echo.HandlerFunc, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(mw...)
	e.GET("/", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandling(t *testing.T) {
	var got error
	mw := ErrorHandling(&ErrorHandlingOption{
		Handler: func(c echo.Context, err error) {
			got = err
			c.NoContent(http.StatusInternalServerError)
		},
	})

	rec := serve(func(c echo.Context) error { return errors.New("db gone") }, mw)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.EqualError(t, got, "db gone")

	rec = serve(func(c echo.Context) error { panic("not an error value") }, mw)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.EqualError(t, got, "panic: not an error value")

	rec = serve(func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") }, mw)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestAbortRequest(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := func(c echo.Context) error {
		deadline, ok = c.Request().Context().Deadline()
		return c.NoContent(http.StatusOK)
	}

	serve(h, AbortRequest(&AbortRequestOption{Timeout: time.Minute}))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	serve(h, AbortRequest())
	assert.False(t, ok)
}

func TestVerifyToken(t *testing.T) {
	ju := auth.NewJWTUtil("HS256", "secret", "academy_token")
	token, err := ju.Sign(&auth.AppTokenClaims{
		UID:            "u1",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	require.NoError(t, err)

	var uid string
	h := func(c echo.Context) error {
		uid = ju.GetContextToken(c).UID
		return c.NoContent(http.StatusOK)
	}
	withCookie := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "academy_token", Value: token})
		return req
	}

	rec := serveRequest(withCookie(), h, VerifyToken(ju))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", uid)

	rec = serve(h, VerifyToken(ju))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	revoked := VerifyToken(ju, &ValidateTokenOption{
		InBlackList: func(ctx context.Context, tk string) (bool, error) { return tk == token, nil },
	})
	rec = serveRequest(withCookie(), h, revoked)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetTraceLogger(t *testing.T) {
	var logger *zap.Logger
	rec := serve(func(c echo.Context) error {
		logger = logging.ExtractLoggerFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, SetTraceLogger(zap.NewExample()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, logger)
}
