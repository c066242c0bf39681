package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/booking"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/config"
	"github.com/Leganyst/session-booking/internal/db"
	"github.com/Leganyst/session-booking/internal/httpapi"
	"github.com/Leganyst/session-booking/internal/identity"
	"github.com/Leganyst/session-booking/internal/invoice"
	"github.com/Leganyst/session-booking/internal/logger"
	"github.com/Leganyst/session-booking/internal/meeting"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/notify"
	"github.com/Leganyst/session-booking/internal/payment"
	"github.com/Leganyst/session-booking/internal/ratelim"
	"github.com/Leganyst/session-booking/internal/repository"
	"github.com/Leganyst/session-booking/internal/scheduler"
	"github.com/Leganyst/session-booking/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env необязателен: в контейнере всё приходит из окружения.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("service stopped with error", zap.Error(err))
	}
	zl.Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 1. База, миграции, сидинг календарей и шаблонов.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Seed(ctx, gormDB, db.SeedOptions{
		TimeZone:          cfg.Business.TimeZone,
		AdminEmail:        cfg.Auth.BootstrapEmail,
		AdminPasswordHash: cfg.Auth.BootstrapPasswordHash,
	}); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	// 2. Репозитории и менеджер календарей.
	operators := repository.NewGormOperatorRepository(gormDB)
	slots := calendar.NewManager(
		repository.NewGormCalendarRepository(gormDB),
		repository.NewGormSlotRepository(gormDB),
		log,
	)

	// 3. Внешние сервисы. Без настроек работают заглушки.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn("SMTP is not configured, emails go to the log")
	}

	limiter := ratelim.New(cfg.Redis.CodesPerMinute, cfg.Redis.CodesBurst, 10*time.Minute)
	codes := identity.NewService(rdb, cfg.Redis.CodeTTL, notify.NewCodeMailer(sender), limiter, log)

	var meetings meeting.Provider = meeting.Disabled{}
	if cfg.Google.CredentialsFile != "" {
		gp, err := meeting.NewGoogleProvider(ctx, cfg.Google.CalendarID, option.WithCredentialsFile(cfg.Google.CredentialsFile))
		if err != nil {
			return err
		}
		meetings = gp
	} else {
		log.Warn("google calendar is not configured, meeting step will fail until it is")
	}

	var payments payment.Verifier
	switch {
	case cfg.Stripe.SecretKey != "":
		payments = payment.NewStripeVerifier(cfg.Stripe.SecretKey, nil)
	case cfg.Stripe.AcceptAll:
		log.Warn("PAYMENT_ACCEPT_ALL is set, payment references are accepted without verification")
		payments = payment.AcceptAll{}
	default:
		return fmt.Errorf("payment verification is not configured")
	}

	loc, err := time.LoadLocation(cfg.Business.TimeZone)
	if err != nil {
		return fmt.Errorf("business timezone: %w", err)
	}
	issuer := invoice.NewIssuer(invoice.Party{
		Name:    cfg.Business.CompanyName,
		Address: cfg.Business.CompanyAddress,
		Email:   cfg.Business.CompanyEmail,
	}, loc)

	// 4. Ядро записи.
	bookings := booking.NewService(booking.Deps{
		Bookings:  repository.NewGormBookingRepository(gormDB),
		Invoices:  repository.NewGormInvoiceRepository(gormDB),
		Steps:     repository.NewGormFulfillmentRepository(gormDB),
		Slots:     slots,
		Issuer:    issuer,
		Identity:  codes,
		Meetings:  meetings,
		Notifier:  sender,
		Templates: notify.NewRenderer(repository.NewGormTemplateRepository(gormDB)),
		Payments:  payments,
		Currency:  cfg.Business.Currency,
		Log:       log,
	})
	authn := auth.NewAuthenticator(operators, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// 5. gRPC, HTTP и планировщик.
	grpcServer, health := service.NewGRPCServer(service.Services{
		Calendar: service.NewCalendarService(slots),
		Booking:  service.NewBookingService(bookings, log),
		Identity: service.NewIdentityService(codes, cfg.Redis.CodeTTL, authn),
		Auth:     authn,
	}, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(httpapi.Deps{
			Bookings:      bookings,
			Auth:          authn,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Checks: map[string]httpapi.Check{
				"db":    sqlDB.PingContext,
				"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
			Log: log,
		})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sched := scheduler.New(log)
	if err := sched.AddPurge(cfg.Scheduler.PurgeSpec, slots); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		health.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
