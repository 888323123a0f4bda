package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/config"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/handler"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/handler/middleware"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/jobs"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository/postgres"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/blacklist"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/cache"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/email"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/events"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/hash"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/jwt"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/pagarme"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/ratelimit"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.Log)

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("Error closing database connection")
		}
	}()
	log.Info("Database connection established")

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis connection")
		}
	}()
	log.Info("Redis connection established")

	privateKey, publicKey, err := loadRSAKeys(cfg)
	if err != nil {
		log.Fatalf("Failed to load RSA keys: %v", err)
	}

	tokenService, err := jwt.NewTokenService(privateKey, publicKey, jwt.Config{
		AccessExpiry:   cfg.JWT.AccessTokenExpiry,
		RefreshExpiry:  cfg.JWT.RefreshTokenExpiry,
		CheckoutExpiry: cfg.JWT.CheckoutTokenExpiry,
		Issuer:         cfg.JWT.Issuer,
	})
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	validate := validator.NewValidator()
	hasher := hash.NewHasher(hash.DefaultParams)
	tokenBlacklist := blacklist.NewTokenBlacklist(redisClient, cfg.JWT.RefreshTokenExpiry)
	redisCache := cache.NewRedis(redisClient, cfg.Redis.CacheTTL)
	limiter := ratelimit.New(redisClient, "ratelimit")
	gateway := pagarme.NewClient(pagarme.Config{
		APIKey:              cfg.Payment.PagarmeAPIKey,
		BaseURL:             cfg.Payment.PagarmeBaseURL,
		StatementDescriptor: cfg.Payment.StatementDescriptor,
		Timeout:             cfg.Payment.PagarmeTimeout,
	})

	mailer := initMailer(cfg.Email)

	var publisher events.Publisher = events.Discard{}
	if cfg.RabbitMQ.URL != "" {
		producer, err := events.NewProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, domain events will be dropped")
		} else {
			defer producer.Close()
			publisher = producer
			log.WithField("exchange", cfg.RabbitMQ.Exchange).Info("RabbitMQ producer ready")
		}
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	companyRepo := postgres.NewCompanyRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	subRepo := postgres.NewSubscriptionRepository(db)
	pendingRepo := postgres.NewPendingPaymentRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	ownerRepo := postgres.NewPropertyOwnerRepository(db)
	propertyRepo := postgres.NewPropertyRepository(db)
	photoRepo := postgres.NewPropertyPhotoRepository(db)
	contractRepo := postgres.NewContractRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	fieldRepo := postgres.NewCustomFieldRepository(db)

	// Services
	fieldService := service.NewCustomFieldService(fieldRepo, subRepo, userRepo, redisCache)
	authService := service.NewAuthService(userRepo, planRepo, subRepo, tokenService, tokenBlacklist, hasher, mailer, redisCache, fieldService, cfg.Verification)
	sessionService := service.NewSessionService(userRepo, subRepo, redisCache)
	paymentService := service.NewPaymentService(pendingRepo, planRepo, userRepo, gateway, hasher, redisCache, publisher, cfg.Payment.PendingTTL)
	subscriptionService := service.NewSubscriptionService(userRepo, planRepo, subRepo, gateway, redisCache)
	userService := service.NewUserService(userRepo, companyRepo, subRepo, fieldService, mailer, publisher, redisCache, tokenBlacklist, cfg.Email.FrontendURL)
	contractService := service.NewContractService(contractRepo, propertyRepo, tenantRepo, ownerRepo, userRepo)

	handlers := handler.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"database": db.PingContext,
			"redis":    redisCache.Ping,
		}),
		Auth:          handler.NewAuthHandler(authService, validate),
		Password:      handler.NewPasswordHandler(authService, validate),
		Session:       handler.NewSessionHandler(authService),
		Plan:          handler.NewPlanHandler(service.NewPlanService(planRepo)),
		Payment:       handler.NewPaymentHandler(paymentService, validate),
		Checkout:      handler.NewCheckoutHandler(subscriptionService, validate),
		User:          handler.NewUserHandler(userService, validate),
		Company:       handler.NewCompanyHandler(service.NewCompanyService(companyRepo), validate),
		Tenant:        handler.NewTenantHandler(service.NewTenantService(tenantRepo, contractRepo), validate),
		PropertyOwner: handler.NewPropertyOwnerHandler(service.NewPropertyOwnerService(ownerRepo, propertyRepo, contractRepo), validate),
		Property:      handler.NewPropertyHandler(service.NewPropertyService(propertyRepo, photoRepo, ownerRepo, userRepo, contractRepo), validate),
		Contract:      handler.NewContractHandler(contractService, validate),
		Document:      handler.NewDocumentHandler(service.NewDocumentService(documentRepo, ownerRepo, tenantRepo, contractRepo), validate),
		CustomField:   handler.NewCustomFieldHandler(fieldService, validate),
		Dashboard:     handler.NewDashboardHandler(service.NewDashboardService(propertyRepo, contractRepo, ownerRepo, tenantRepo)),
	}

	mw := handler.Middlewares{
		Auth:            middleware.RequireAuth(tokenService, tokenBlacklist, sessionService, false),
		AuthPending:     middleware.RequireAuth(tokenService, tokenBlacklist, sessionService, true),
		Checkout:        middleware.RequireCheckout(tokenService),
		AuthRateLimit:   middleware.RateLimit(limiter, "auth", cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow),
		PublicRateLimit: middleware.RateLimit(limiter, "public", cfg.RateLimit.PublicMax, cfg.RateLimit.PublicWindow),
		Webhook:         middleware.WebhookSecret(cfg.Payment.WebhookSecret),
	}

	app := fiber.New(fiber.Config{
		AppName:               "CRM Imobiliario API",
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	// Logger is outermost so it sees the status written by the error handler
	app.Use(middleware.Logger())
	app.Use(middleware.Recovery())
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))

	handler.SetupRoutes(app, handlers, mw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(ctx)
		for _, task := range jobs.Tasks(cfg.Jobs, paymentService, subscriptionService, contractService) {
			if err := scheduler.Register(task); err != nil {
				log.Fatalf("Failed to schedule jobs: %v", err)
			}
		}
		scheduler.Start()
	}

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.WithFields(log.Fields{"addr": addr, "environment": cfg.Server.Environment}).Info("Server starting")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Error("Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	log.Info("Server stopped")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func initMailer(cfg config.EmailConfig) email.Sender {
	if !cfg.Enabled {
		log.Info("Email delivery disabled (set EMAIL_ENABLED=true to enable)")
		return email.LogSender{}
	}
	sender, err := email.NewResendSender(email.Config{
		APIKey:      cfg.APIKey,
		FromName:    cfg.FromName,
		FromEmail:   cfg.FromEmail,
		FrontendURL: cfg.FrontendURL,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to initialize email service, codes will only be logged")
		return email.LogSender{}
	}
	log.WithField("from", cfg.FromEmail).Info("Email service initialized (Resend)")
	return sender
}

// initDB opens the PostgreSQL pool, retrying while the database starts up
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.WithError(err).Warnf("Failed to connect to database (attempt %d/%d)", i+1, maxRetries)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing database after ping failure")
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing Redis after ping failure")
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// loadRSAKeys reads the PEM key pair used to sign tokens
func loadRSAKeys(cfg *config.Config) ([]byte, []byte, error) {
	privateKey, err := os.ReadFile(cfg.JWT.PrivateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	publicKey, err := os.ReadFile(cfg.JWT.PublicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	if len(privateKey) == 0 {
		return nil, nil, fmt.Errorf("private key file is empty")
	}
	if len(publicKey) == 0 {
		return nil, nil, fmt.Errorf("public key file is empty")
	}

	return privateKey, publicKey, nil
}
