package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	infra "github.com/unifreelancer/academy/internal/infrastructure"
	"github.com/unifreelancer/academy/internal/infrastructure/auth"
	"github.com/unifreelancer/academy/internal/infrastructure/driver"
	"github.com/unifreelancer/academy/internal/infrastructure/uuid"
	"github.com/unifreelancer/academy/internal/infrastructure/validate"
	"github.com/unifreelancer/academy/internal/interfaces/rest/handler"
	"github.com/unifreelancer/academy/internal/interfaces/rest/middleware"
	"github.com/unifreelancer/academy/internal/progress"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

// RevokedTokenPrefix key prefix the identity provider uses for revoked tokens
const RevokedTokenPrefix = "revoked:"

// Pinger a dependency the liveness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer create http transport server
func NewServer(
	option *infra.AppConfig,
	ProgressUseCase progress.UseCase,
	rdb driver.KeyValueDB,
	logger *zap.Logger,
	probes ...Pinger,
) *echo.Echo {
	var (
		app          = echo.New()
		validator    = validate.NewValidator()
		requestID    = uuid.RandomUUIDGenerator{}
		jwtUtil      = auth.NewJWTUtil(option.Security.JWTMethod, option.Security.JWTSecret, option.Security.TokenName)
		unauthorized = func(c echo.Context, reason string) error {
			return c.JSON(http.StatusUnauthorized,
				handler.NewRESTStandardError(http.StatusUnauthorized, reason).
					SetType("unauthenticated").
					SetTraceID(c.Response().Header().Get(echo.HeaderXRequestID)))
		}
		jwtMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: func(ctx context.Context, token string) (bool, error) {
				return rdb.Exists(ctx, RevokedTokenPrefix+token)
			},
			Unauthorized: unauthorized,
		})
	)
	app.HideBanner = true
	app.HidePort = true

	registerLivenessProbe(app, probes...)
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz")
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, err error) {
				traceID := c.Response().Header().Get(echo.HeaderXRequestID)
				kind := "internal"
				if errors.Is(err, progress.ErrStorageUnavailable) {
					kind = "storage_unavailable"
				}
				c.JSON(http.StatusInternalServerError,
					handler.NewRESTStandardError(http.StatusInternalServerError, "internal server error").
						SetType(kind).
						SetTraceID(traceID),
				)
				logger.Error(err.Error(), zap.String("trace.id", traceID))
			},
			HTTPErrorHandler: func(c echo.Context, err *echo.HTTPError) {
				c.JSON(err.Code,
					handler.NewRESTStandardError(err.Code, fmt.Sprint(err.Message)).
						SetTraceID(c.Response().Header().Get(echo.HeaderXRequestID)),
				)
			},
		},
	))
	app.Use(echo_middleware.RequestIDWithConfig(echo_middleware.RequestIDConfig{
		Generator: func() string {
			id, _ := requestID.Generate()
			return id
		},
	}))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORS())
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
	}))

	ProgressHandler := handler.NewProgressHandler(ProgressUseCase, jwtUtil, validator)

	createEndpoint(app,
		&endpoint{
			apiVersion:  "api/v1",
			middlewares: []echo.MiddlewareFunc{middleware.SetTraceLogger(logger)},
			groups: []*apiGroup{
				{
					prefix:      "/courses/:courseId/progress",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", ProgressHandler.HandleGetProgress, nil},
						{"POST", "/select-lesson", ProgressHandler.HandleSelectLesson, nil},
						{"POST", "/complete-lesson/:lessonId", ProgressHandler.HandleCompleteLesson, nil},
						{"POST", "/assignment/:lessonId/submit", ProgressHandler.HandleSubmitAssignment, nil},
						{"GET", "/assignment/:lessonId", ProgressHandler.HandleGetAssignment, nil},
						{"POST", "/quiz/:lessonId/submit", ProgressHandler.HandleSubmitQuiz, nil},
						{"POST", "/final-test/submit", ProgressHandler.HandleSubmitFinalTest, nil},
					},
				},
			},
		})

	printRoutes(app, logger)
	return app
}

// Serve runs app until ctx is done, then drains in-flight requests
func Serve(ctx context.Context, app *echo.Echo, addr string, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", addr))
		errc <- app.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			logger.Debug("Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, probes ...Pinger) {
	app.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		for _, p := range probes {
			if err := p.Ping(ctx); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
}
