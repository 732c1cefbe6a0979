package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/campus-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users        *UserRepository
	Rooms        *RoomRepository
	Timetable    *TimetableRepository
	Bookings     *BookingRepository
	Availability *FacultyAvailabilityRepository
	Staffrooms   *StaffroomRepository
	Notify       *NotificationRepository
}

// Open opens the database at dsn with the default SQLite configuration.
func Open(dsn string, logger *slog.Logger) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(dsn), logger)
}

// OpenWithConfig opens the database with an explicit configuration.
func OpenWithConfig(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:         pool,
		logger:       logger,
		Users:        NewUserRepository(pool),
		Rooms:        NewRoomRepository(pool),
		Timetable:    NewTimetableRepository(pool),
		Bookings:     NewBookingRepository(pool),
		Availability: NewFacultyAvailabilityRepository(pool),
		Staffrooms:   NewStaffroomRepository(pool),
		Notify:       NewNotificationRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	scanner := migration.NewFileScanner(migrationsFS, "migrations")
	manager := migration.NewManager(scanner, migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
