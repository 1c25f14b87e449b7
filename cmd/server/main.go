package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamtrails/travel-booking-backend/internal/config"
	"github.com/roamtrails/travel-booking-backend/internal/database"
	"github.com/roamtrails/travel-booking-backend/internal/handlers"
	"github.com/roamtrails/travel-booking-backend/internal/middleware"
	"github.com/roamtrails/travel-booking-backend/internal/services"
	"github.com/roamtrails/travel-booking-backend/internal/utils"
	"github.com/roamtrails/travel-booking-backend/pkg/jwt"
	"github.com/roamtrails/travel-booking-backend/pkg/mail"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting RoamTrails Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	bookingRepository := database.NewBookingRepository(db)
	packageRepository := database.NewPackageRepository(db)
	userRepository := database.NewUserRepository(db)
	auditRepository := database.NewPaymentAuditRepository(db, logger)

	// Initialize payment gateway
	stripeService := services.NewStripeService(&cfg.Stripe, logger)
	if stripeService.IsConfigured() {
		logger.Info("Stripe payment gateway initialized")
	} else {
		logger.Warn("Stripe secret key not set, gateway checkout is disabled")
	}

	// Initialize mail gateway
	var mailer mail.Sender
	if cfg.Mail.Mode == "production" {
		logger.Info("Initializing HTTP mail gateway in production mode...")
		mailer = mail.NewHTTPGateway(mail.HTTPConfig{
			APIURL:      cfg.Mail.APIURL,
			APIKey:      cfg.Mail.APIKey,
			FromAddress: cfg.Mail.FromAddress,
			FromName:    cfg.Mail.FromName,
		})
	} else {
		logger.Info("Mail gateway in development mode (no actual mail will be sent)")
		mailer = mail.NewDevSender(logger)
	}
	logger.Infof("Mail gateway: %s", mailer.GetName())

	bookingService := services.NewBookingService(
		bookingRepository,
		packageRepository,
		userRepository,
		auditRepository,
		stripeService,
		mailer,
		cfg.Bank,
		logger,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(bookingService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Gateway-facing routes (no user auth; the webhook authenticates
		// with its signature, the redirect carries only a session id)
		v1.POST("/payments/webhook", paymentHandler.HandleWebhook)
		v1.GET("/bookings/checkout-success", bookingHandler.CheckoutSuccess)

		// Booking routes (protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("/checkout-session/:packageId", bookingHandler.CreateCheckoutSession)
			bookings.POST("/create/:packageId", bookingHandler.CreateDirectBooking)
			bookings.PATCH("/cancel/:id", bookingHandler.CancelBooking)
			bookings.GET("/my-bookings", bookingHandler.GetMyBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)

			// Admin-only booking routes
			admin := bookings.Group("")
			admin.Use(middleware.RequireRole("admin"))
			{
				admin.GET("", bookingHandler.ListBookings)
				admin.GET("/stats", bookingHandler.GetStats)
				admin.PATCH("/:id", bookingHandler.UpdateBooking)
			}
		}

		// Payment routes (protected)
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthMiddleware(jwtService))
		{
			payments.POST("/create-payment-intent", paymentHandler.CreatePaymentIntent)

			// Admin-only payment routes
			paymentsAdmin := payments.Group("")
			paymentsAdmin.Use(middleware.RequireRole("admin"))
			{
				paymentsAdmin.GET("/sessions/:id/audits", paymentHandler.GetSessionAudits)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		device := utils.ParseUserAgent(c.Request.UserAgent())

		fields := logrus.Fields{
			"status":      c.Writer.Status(),
			"method":      c.Request.Method,
			"path":        path,
			"query":       query,
			"ip":          c.ClientIP(),
			"latency_ms":  latency.Milliseconds(),
			"device_type": device.DeviceType,
			"os":          device.OS,
			"browser":     device.Browser,
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
