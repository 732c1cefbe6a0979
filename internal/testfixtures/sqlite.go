package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness exposes the repositories of a migrated, file-backed SQLite database
// living in the test's temp directory.
type SQLiteHarness struct {
	Storage       *sqlite.Storage
	Users         persistence.UserRepository
	Rooms         persistence.RoomRepository
	Timetable     persistence.TimetableRepository
	Bookings      persistence.BookingRepository
	Availability  persistence.FacultyAvailabilityRepository
	Staffrooms    persistence.StaffroomRepository
	Notifications persistence.NotificationRepository
}

// NewSQLiteHarness opens and migrates a fresh database. It is closed on test cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "campus.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(path, logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{
		Storage:       storage,
		Users:         storage.Users,
		Rooms:         storage.Rooms,
		Timetable:     storage.Timetable,
		Bookings:      storage.Bookings,
		Availability:  storage.Availability,
		Staffrooms:    storage.Staffrooms,
		Notifications: storage.Notify,
	}
}
