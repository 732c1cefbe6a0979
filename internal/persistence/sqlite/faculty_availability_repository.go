package sqlite

import (
	"context"
	"strings"

	"github.com/example/campus-scheduler/internal/persistence"
)

const availabilityColumns = `id, faculty_id, date, status, created_at, updated_at`

// FacultyAvailabilityRepository implements persistence.FacultyAvailabilityRepository using SQLite.
type FacultyAvailabilityRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewFacultyAvailabilityRepository creates a new SQLite availability repository.
func NewFacultyAvailabilityRepository(pool *ConnectionPool) *FacultyAvailabilityRepository {
	return &FacultyAvailabilityRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// UpsertAvailability records the status for (faculty, date). An existing row keeps its
// ID and creation time; the stored row is returned.
func (r *FacultyAvailabilityRepository) UpsertAvailability(ctx context.Context, availability persistence.FacultyAvailability) (persistence.FacultyAvailability, error) {
	if availability.ID == "" || availability.FacultyID == "" || availability.Date == "" {
		return persistence.FacultyAvailability{}, persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO faculty_availability (`+availabilityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(faculty_id, date) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		availability.ID,
		availability.FacultyID,
		availability.Date,
		availability.Status,
		formatTimestamp(availability.CreatedAt),
		formatTimestamp(availability.UpdatedAt),
	)
	if err != nil {
		return persistence.FacultyAvailability{}, r.mapper.MapError(err)
	}
	return r.GetAvailability(ctx, availability.FacultyID, availability.Date)
}

// GetAvailability retrieves the record for one faculty member on one date.
func (r *FacultyAvailabilityRepository) GetAvailability(ctx context.Context, facultyID, date string) (persistence.FacultyAvailability, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT `+availabilityColumns+` FROM faculty_availability
		WHERE faculty_id = ? AND date = ?`,
		facultyID, date,
	)
	availability, err := scanAvailability(row)
	if err != nil {
		return persistence.FacultyAvailability{}, r.mapper.MapError(err)
	}
	return availability, nil
}

// ListAvailability returns records matching the filter ordered by date.
func (r *FacultyAvailabilityRepository) ListAvailability(ctx context.Context, filter persistence.FacultyAvailabilityFilter) ([]persistence.FacultyAvailability, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.FacultyID != "" {
		conditions = append(conditions, "faculty_id = ?")
		args = append(args, filter.FacultyID)
	}
	if filter.From != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + availabilityColumns + ` FROM faculty_availability`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY date ASC, faculty_id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.FacultyAvailability
	for rows.Next() {
		record, err := scanAvailability(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

func scanAvailability(row rowScanner) (persistence.FacultyAvailability, error) {
	var (
		record               persistence.FacultyAvailability
		createdAt, updatedAt string
	)
	if err := row.Scan(&record.ID, &record.FacultyID, &record.Date, &record.Status, &createdAt, &updatedAt); err != nil {
		return persistence.FacultyAvailability{}, err
	}

	var err error
	if record.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.FacultyAvailability{}, err
	}
	if record.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.FacultyAvailability{}, err
	}
	return record, nil
}
