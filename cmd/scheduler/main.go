package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/config"
	httptransport "github.com/example/campus-scheduler/internal/http"
	"github.com/example/campus-scheduler/internal/jobs"
	"github.com/example/campus-scheduler/internal/logging"
	"github.com/example/campus-scheduler/internal/notify"
	"github.com/example/campus-scheduler/internal/otp"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

const maxMemoryCodes = 10000

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	app.jobs.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.hub.Close(); err != nil && !errors.Is(err, notify.ErrClosed) {
			logger.Error("failed to close notification hub", "error", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
		if err := app.jobs.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop cron jobs", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired service graph and the resources it owns.
type app struct {
	handler http.Handler
	storage *sqlite.Storage
	redis   *redis.Client
	hub     *notify.Hub
	jobs    *jobs.Scheduler
	auth    *application.AuthService
	digest  *application.DigestService
	logger  *slog.Logger
}

// newApp opens storage, wires every service and returns the routed handler. A nil
// sender falls back to logging codes.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, sender application.CodeSender) (*app, error) {
	storage, err := sqlite.Open(cfg.SQLiteDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	a := &app{storage: storage, logger: logger}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	idGenerator := uuid.NewString
	now := time.Now

	users := newUserRepositoryAdapter(storage.Users)
	rooms := newRoomRepositoryAdapter(storage.Rooms)
	timetable := newTimetableRepositoryAdapter(storage.Timetable)
	bookings := newBookingRepositoryAdapter(storage.Bookings)
	availability := newAvailabilityRepositoryAdapter(storage.Availability)
	staffrooms := newStaffroomRepositoryAdapter(storage.Staffrooms)
	notifications := newNotificationRepositoryAdapter(storage.Notify)

	a.jobs = jobs.New(location, logger)
	checks := map[string]httptransport.Pinger{"database": storage}

	var codes application.CodeStore
	if cfg.UsesRedis() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := otp.NewRedisStore(a.redis, "")
		checks["redis"] = store
		codes = store
	} else {
		store := otp.NewMemoryStore(maxMemoryCodes, now)
		if _, err := a.jobs.AddPurge("@every 1m", store); err != nil {
			a.Close()
			return nil, err
		}
		codes = store
	}

	a.hub = notify.NewHub(logger)
	tokens := application.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, now)
	if sender == nil {
		sender = application.LogCodeSender{Logger: logger}
	}

	notificationService := application.NewNotificationServiceWithLogger(notifications, a.hub, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(users, idGenerator, now, logger)
	roomService := application.NewRoomServiceWithLogger(rooms, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookings, rooms, users, notificationService, idGenerator, now, logger)
	timetableService := application.NewTimetableServiceWithLogger(timetable, users, rooms, idGenerator, now, logger)
	facultyService := application.NewFacultyServiceWithLogger(availability, users, notificationService, idGenerator, now, logger)
	availabilityService := application.NewAvailabilityServiceWithLogger(rooms, timetable, bookings, availability, location, now, logger)
	staffroomService := application.NewStaffroomServiceWithLogger(staffrooms, users, availability, location, idGenerator, now, logger)
	a.auth = application.NewAuthServiceWithLogger(users, codes, sender, tokens, idGenerator, now, cfg.OTPTTL, logger)
	a.digest = application.NewDigestService(bookings, availability, notificationService, location, now, logger)

	if cfg.BootstrapAdminEmail != "" {
		if _, err := userService.EnsureAdmin(ctx, cfg.BootstrapAdminEmail); err != nil {
			a.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	if _, err := a.jobs.AddDigest(cfg.DigestCron, a.digest); err != nil {
		a.Close()
		return nil, err
	}

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Health:        httptransport.NewHealthHandler(checks, logger),
		Auth:          httptransport.NewAuthHandler(a.auth, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Rooms:         httptransport.NewRoomHandler(roomService, availabilityService, logger),
		Bookings:      httptransport.NewBookingHandler(bookingService, logger),
		Timetable:     httptransport.NewTimetableHandler(timetableService, logger),
		Faculty:       httptransport.NewFacultyHandler(facultyService, logger),
		Staffrooms:    httptransport.NewStaffroomHandler(staffroomService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, a.hub, logger),
		Tokens:        a.auth,
		Logger:        logger,
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return a, nil
}

// Close releases the resources owned by the app. It is safe to call more than once.
func (a *app) Close() {
	if a.hub != nil {
		if err := a.hub.Close(); err != nil && !errors.Is(err, notify.ErrClosed) {
			a.logger.Error("failed to close notification hub", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			a.logger.Error("failed to close redis client", "error", err)
		}
		a.redis = nil
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Error("failed to close storage", "error", err)
		}
		a.storage = nil
	}
}
