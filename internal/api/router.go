package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/datingapp/dating-api/docs"
	"github.com/datingapp/dating-api/internal/api/handler"
	"github.com/datingapp/dating-api/internal/api/middleware"
	"github.com/datingapp/dating-api/internal/core/ports"
	"github.com/datingapp/dating-api/internal/infrastructure/http/handlers"
)

// multipartOverhead is allowed on top of the photo limit for form framing.
const multipartOverhead = 1 << 20

// Dependencies is everything the router needs from main.
type Dependencies struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Photos   ports.PhotoService
	Verifier ports.TokenVerifier
	Denylist ports.TokenDenylist
	Health   map[string]handlers.Checker

	CORSOrigins    []string
	MaxUploadBytes int64
	Log            zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// Per-router registry so several routers can coexist in one process.
	reg := prometheus.NewRegistry()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderLocation},
		AllowCredentials: false,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dK", (maxUpload+multipartOverhead)/1024)))

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)
	photoHandler := handler.NewPhotoHandler(deps.Photos)
	healthHandler := handlers.NewHealthHandler(deps.Health)
	requireAuth := middleware.Auth(deps.Verifier, deps.Denylist, deps.Log)

	// --- Auth ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register).Name = "Register"
	auth.POST("/login", authHandler.Login).Name = "Login"
	auth.POST("/logout", authHandler.Logout, requireAuth).Name = "Logout"

	// --- Users and photos ---
	users := e.Group("/api/users", requireAuth)
	users.GET("/:id", userHandler.Get).Name = "GetUser"
	users.POST("/:id/photos", photoHandler.Upload, middleware.OwnerOnly("id")).Name = "UploadPhoto"
	users.GET("/:id/photos/:photoId", photoHandler.Get).Name = "GetPhoto"

	// --- Operations ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
