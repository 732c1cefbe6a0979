package sqlite

import (
	"context"

	"github.com/example/campus-scheduler/internal/persistence"
)

const timetableColumns = `id, branch, semester, section, day_of_week, period_index, subject,
	faculty_id, room_id, start_time, end_time, created_at, updated_at`

// dayOrder sorts Mon..Sat in calendar order rather than alphabetically.
const dayOrder = `CASE day_of_week
	WHEN 'Mon' THEN 1 WHEN 'Tue' THEN 2 WHEN 'Wed' THEN 3
	WHEN 'Thu' THEN 4 WHEN 'Fri' THEN 5 WHEN 'Sat' THEN 6 ELSE 7 END`

// TimetableRepository implements persistence.TimetableRepository using SQLite.
type TimetableRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTimetableRepository creates a new SQLite timetable repository.
func NewTimetableRepository(pool *ConnectionPool) *TimetableRepository {
	return &TimetableRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateEntry inserts a timetable slot. A taken (branch, semester, section, day, period)
// slot yields ErrDuplicate.
func (r *TimetableRepository) CreateEntry(ctx context.Context, entry persistence.TimetableEntry) error {
	_, err := r.helper.Exec(ctx, `
		INSERT INTO timetable_entries (`+timetableColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Branch,
		entry.Semester,
		entry.Section,
		entry.DayOfWeek,
		entry.PeriodIndex,
		entry.Subject,
		entry.FacultyID,
		entry.RoomID,
		entry.StartTime,
		entry.EndTime,
		formatTimestamp(entry.CreatedAt),
		formatTimestamp(entry.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetEntry retrieves a timetable entry by ID.
func (r *TimetableRepository) GetEntry(ctx context.Context, id string) (persistence.TimetableEntry, error) {
	entry, err := scanTimetableEntry(r.helper.QueryRow(ctx, `SELECT `+timetableColumns+` FROM timetable_entries WHERE id = ?`, id))
	if err != nil {
		return persistence.TimetableEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// ListBySection returns a section's weekly timetable ordered by day then period.
func (r *TimetableRepository) ListBySection(ctx context.Context, branch string, semester int, section string) ([]persistence.TimetableEntry, error) {
	return r.list(ctx, `
		SELECT `+timetableColumns+` FROM timetable_entries
		WHERE branch = ? AND semester = ? AND section = ?
		ORDER BY `+dayOrder+`, period_index ASC`,
		branch, semester, section,
	)
}

// ListByRoomAndDay returns the entries held in a room on a weekday ordered by period.
func (r *TimetableRepository) ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]persistence.TimetableEntry, error) {
	return r.list(ctx, `
		SELECT `+timetableColumns+` FROM timetable_entries
		WHERE room_id = ? AND day_of_week = ?
		ORDER BY period_index ASC, id ASC`,
		roomID, dayOfWeek,
	)
}

// DeleteEntry removes a timetable entry.
func (r *TimetableRepository) DeleteEntry(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM timetable_entries WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return affectedOne(result)
}

func (r *TimetableRepository) list(ctx context.Context, query string, args ...any) ([]persistence.TimetableEntry, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.TimetableEntry
	for rows.Next() {
		entry, err := scanTimetableEntry(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

func scanTimetableEntry(row rowScanner) (persistence.TimetableEntry, error) {
	var (
		entry                persistence.TimetableEntry
		createdAt, updatedAt string
	)
	err := row.Scan(
		&entry.ID,
		&entry.Branch,
		&entry.Semester,
		&entry.Section,
		&entry.DayOfWeek,
		&entry.PeriodIndex,
		&entry.Subject,
		&entry.FacultyID,
		&entry.RoomID,
		&entry.StartTime,
		&entry.EndTime,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.TimetableEntry{}, err
	}
	if entry.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.TimetableEntry{}, err
	}
	if entry.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.TimetableEntry{}, err
	}
	return entry, nil
}
