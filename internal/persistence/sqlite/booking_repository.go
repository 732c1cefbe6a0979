package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

const bookingColumns = `id, user_id, room_id, starts_at_ms, ends_at_ms, reason, status, created_at, updated_at`

// activeOverlap selects active bookings intersecting [?, ?) under half-open semantics.
// Parameters: end, start.
const activeOverlap = `status IN ('pending', 'approved') AND starts_at_ms < ? AND ends_at_ms > ?`

// BookingRepository implements persistence.BookingRepository using SQLite.
// Instants are stored as Unix milliseconds.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// InsertIfNoOverlap inserts the booking only when no active booking of the same room
// overlaps it. The check and the insert are a single statement, so concurrent writers
// on the same database cannot both succeed; the loser gets ErrOverlap.
func (r *BookingRepository) InsertIfNoOverlap(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" || !booking.Start.Before(booking.End) {
		return persistence.ErrConstraintViolation
	}

	start, end := booking.Start.UnixMilli(), booking.End.UnixMilli()
	var result sql.Result
	err := r.retry.WithRetry(ctx, func() error {
		var execErr error
		result, execErr = r.helper.Exec(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
			WHERE NOT EXISTS (
				SELECT 1 FROM bookings WHERE room_id = ? AND `+activeOverlap+`
			)`,
			booking.ID,
			booking.UserID,
			booking.RoomID,
			start,
			end,
			nullableString(booking.Reason),
			booking.Status,
			formatTimestamp(booking.CreatedAt),
			formatTimestamp(booking.UpdatedAt),
			booking.RoomID,
			end,
			start,
		)
		return execErr
	})
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return r.mapper.MapError(err)
	}
	if n == 0 {
		return persistence.ErrOverlap
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	booking, err := scanBooking(r.helper.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListActiveOverlapping returns the room's pending and approved bookings intersecting
// [start, end), ordered by start.
func (r *BookingRepository) ListActiveOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]persistence.Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ? AND `+activeOverlap+`
		ORDER BY starts_at_ms ASC, id ASC`,
		roomID, end.UnixMilli(), start.UnixMilli(),
	)
}

// ListByUser returns a user's bookings ordered by start.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]persistence.Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE user_id = ?
		ORDER BY starts_at_ms ASC, id ASC`,
		userID,
	)
}

// CountActiveOverlapping counts active bookings across all rooms intersecting [start, end).
func (r *BookingRepository) CountActiveOverlapping(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE `+activeOverlap,
		end.UnixMilli(), start.UnixMilli(),
	).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking              persistence.Booking
		startMs, endMs       int64
		reason               sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.RoomID,
		&startMs,
		&endMs,
		&reason,
		&booking.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}
	booking.Start = time.UnixMilli(startMs).UTC()
	booking.End = time.UnixMilli(endMs).UTC()
	booking.Reason = stringPointer(reason)

	if booking.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}
