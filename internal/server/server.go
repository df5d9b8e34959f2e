package server

import (
	"context"
	"net/http"
	"time"

	"eventix/internal/auth"
	"eventix/internal/booking"
	"eventix/internal/config"
	"eventix/internal/event"
	"eventix/internal/settlement"
	"eventix/internal/user"
	"eventix/internal/wallet"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Users      *user.Handler
	Events     *event.Handler
	Wallet     *wallet.Handler
	Bookings   *booking.Handler
	Sales      *booking.SalesHandler
	Settlement *settlement.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, h Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	registerRoutes(router.Group("/api/v1"), cfg.JWTSecret, h)

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func registerRoutes(v1 *gin.RouterGroup, jwtSecret string, h Handlers) {
	authMiddleware := auth.AuthMiddleware(jwtSecret)
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Users.Register)
		authGroup.POST("/login", h.Users.Login)
		authGroup.POST("/refresh", h.Users.RefreshToken)
		authGroup.GET("/me", authMiddleware, h.Users.GetMe)
	}

	events := v1.Group("/events")
	{
		events.GET("", h.Events.ListEvents)
		events.GET("/:id", h.Events.GetEvent)
		events.POST("", authMiddleware, adminOnly, h.Events.CreateEvent)
		events.PUT("/:id", authMiddleware, adminOnly, h.Events.UpdateEvent)
		events.DELETE("/:id", authMiddleware, adminOnly, h.Events.DeleteEvent)
	}

	wallets := v1.Group("/wallet")
	wallets.Use(authMiddleware)
	{
		wallets.GET("", h.Wallet.GetWallet)
		wallets.GET("/transactions", h.Wallet.ListTransactions)
		wallets.POST("/topup", h.Wallet.CreateTopUp)
		wallets.POST("/topup/confirm", h.Wallet.ConfirmTopUp)
		wallets.POST("/pay", h.Settlement.Pay)
		wallets.POST("/refund", adminOnly, h.Settlement.Refund)
		wallets.GET("/reconciliation", adminOnly, h.Wallet.ListIssues)
	}

	ticketing := v1.Group("/ticketing")
	ticketing.Use(authMiddleware)
	{
		ticketing.GET("", h.Bookings.ListBookings)
		ticketing.POST("", auth.RequireRole(auth.RoleMember), h.Settlement.CreateBooking)
		ticketing.GET("/:id", h.Bookings.GetBooking)
		ticketing.GET("/:id/ticket", h.Bookings.DownloadTicket)
		ticketing.PUT("/:id", h.Settlement.UpdateBooking)
		ticketing.DELETE("/:id", h.Settlement.DeleteBooking)
	}

	v1.GET("/reports/sales", authMiddleware, adminOnly, h.Sales.Sales)
}

// Router exposes the underlying engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
