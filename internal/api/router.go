package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/identity-mirror/idsync/docs"
	"github.com/identity-mirror/idsync/internal/api/handler"
	"github.com/identity-mirror/idsync/internal/api/middleware"
	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

// Deps carries everything the router needs. Services are constructed by the
// caller so tests can substitute doubles.
type Deps struct {
	DB          *mongo.Database
	Redis       *redis.Client
	SyncService ports.SyncService
	UserService ports.UserService
	Reconciler  ports.ReconcileService
	Bus         ports.EventBus
	AuthService ports.AuthService
	JWTSecret   string
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("idsync"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	eventHandler := handler.NewEventHandler(deps.SyncService)
	userHandler := handler.NewUserHandler(deps.UserService)
	syncHandler := handler.NewSyncHandler(deps.Reconciler, deps.Bus, deps.Log)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Inbound event endpoint ---
	// The bus transport decides the verb, so every method is accepted.
	e.Any("/v1/events", eventHandler.Receive)

	// --- Operator API (JWT + RBAC) ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))

	v1.GET("/users", userHandler.List, middleware.RBAC(domain.OperatorRoleAdmin, domain.OperatorRoleService))
	v1.GET("/users/:externalId", userHandler.Get, middleware.RBAC(domain.OperatorRoleAdmin, domain.OperatorRoleService))
	v1.PATCH("/users/:externalId/role", userHandler.ChangeRole, middleware.RBAC(domain.OperatorRoleAdmin))
	v1.PUT("/users/:externalId/address", userHandler.ChangeAddress, middleware.RBAC(domain.OperatorRoleAdmin))

	v1.POST("/sync/users/bulk", syncHandler.BulkSync, middleware.RBAC(domain.OperatorRoleAdmin, domain.OperatorRoleService))
	v1.POST("/sync/users/:externalId", syncHandler.SyncUser, middleware.RBAC(domain.OperatorRoleAdmin, domain.OperatorRoleService))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
