package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/http/handlers"
	"github.com/geocoder89/clubhub/internal/http/middlewares"
	"github.com/geocoder89/clubhub/internal/observability"
)

// multipart framing and the text fields on top of the largest allowed proof
const registerBodyLimit = registration.MaxProofBytes + 1<<20

const jsonBodyLimit = 64 << 10

type RouterConfig struct {
	Env                string
	ServiceName        string
	CORSAllowedOrigins []string
	// requests per minute
	RegisterRateLimit int
	SharedRateLimit   int
}

type Deps struct {
	Events        handlers.EventManager
	Registrations handlers.Registrar
	Payments      handlers.PaymentReviewer
	Receipts      handlers.ReceiptReader
	Tokens        middlewares.TokenVerifier
	Ready         map[string]handlers.Pinger

	// set in memory storage mode; proof URLs then point at /files
	Files handlers.StoredFiles

	// optional; /metrics is only mounted when both are set
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg RouterConfig, d Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "clubhub"
	}
	if cfg.RegisterRateLimit <= 0 {
		cfg.RegisterRateLimit = 20
	}
	if cfg.SharedRateLimit <= 0 {
		cfg.SharedRateLimit = 60
	}

	r := gin.New()

	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		if d.Gatherer != nil {
			r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
		}
	}

	health := handlers.NewHealthHandler(d.Ready)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	requireAdmin := authMW.RequireRole(user.RoleAdmin)
	jsonOnly := middlewares.RequireContentType("application/json")

	registerLimiter := middlewares.NewRateLimiter(cfg.RegisterRateLimit, time.Minute)
	sharedLimiter := middlewares.NewRateLimiter(cfg.SharedRateLimit, time.Minute)

	eventsHandler := handlers.NewEventsHandler(d.Events)
	registrationHandler := handlers.NewRegistrationHandler(d.Registrations)
	paymentsHandler := handlers.NewPaymentsHandler(d.Payments)
	receiptsHandler := handlers.NewReceiptsHandler(d.Receipts)

	// public: the share token is the credential
	r.GET("/receipts/shared/:token",
		sharedLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		receiptsHandler.Shared,
	)

	if d.Files != nil {
		r.GET("/files/*key", handlers.NewFilesHandler(d.Files).Get)
	}

	authed := r.Group("/", authMW.RequireAuth())

	events := authed.Group("/events")
	{
		events.POST("", requireAdmin, middlewares.MaxBodyBytes(jsonBodyLimit), jsonOnly, eventsHandler.CreateEvent)
		events.GET("/:id", eventsHandler.GetEventByID)
		events.POST("/:id/cancel", requireAdmin, eventsHandler.CancelEvent)

		events.POST("/:id/register",
			registerLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
			middlewares.MaxBodyBytes(registerBodyLimit),
			middlewares.RequireContentType("multipart/form-data", "application/x-www-form-urlencoded"),
			registrationHandler.Register,
		)
		events.POST("/:id/unregister", registrationHandler.Unregister)
	}

	receipts := authed.Group("/receipts/event/:eventId")
	{
		receipts.GET("", receiptsHandler.Metadata)
		receipts.GET("/proof", receiptsHandler.Proof)
		receipts.GET("/download", receiptsHandler.Download)
		receipts.GET("/share", receiptsHandler.Share)
	}

	// GET and POST have separate route trees, so :status and :eventId can share the segment
	admin := authed.Group("/admin/payments", requireAdmin)
	{
		admin.GET("", paymentsHandler.List)
		admin.GET("/:status", paymentsHandler.List)
		admin.POST("/:eventId/:registrationId/approve", paymentsHandler.Approve)
		admin.POST("/:eventId/:registrationId/reject", middlewares.MaxBodyBytes(jsonBodyLimit), jsonOnly, paymentsHandler.Reject)
	}

	return r
}
