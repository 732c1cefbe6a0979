package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/campus-scheduler/internal/persistence"
)

const staffroomColumns = `id, name, location, created_at, updated_at`

// StaffroomRepository implements persistence.StaffroomRepository using SQLite.
type StaffroomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStaffroomRepository creates a new SQLite staffroom repository.
func NewStaffroomRepository(pool *ConnectionPool) *StaffroomRepository {
	return &StaffroomRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateStaffroom inserts the staffroom and assigns the given faculty in one transaction.
// A faculty member already assigned elsewhere fails the whole operation with ErrDuplicate;
// an unknown faculty ID fails it with ErrNotFound.
func (r *StaffroomRepository) CreateStaffroom(ctx context.Context, staffroom persistence.Staffroom, facultyIDs []string) error {
	if staffroom.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO staffrooms (`+staffroomColumns+`)
			VALUES (?, ?, ?, ?, ?)`,
			staffroom.ID,
			staffroom.Name,
			nullableString(staffroom.Location),
			formatTimestamp(staffroom.CreatedAt),
			formatTimestamp(staffroom.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		for _, facultyID := range facultyIDs {
			var current sql.NullString
			err := r.helper.QueryRowTx(ctx, tx, `SELECT staffroom_id FROM users WHERE id = ?`, facultyID).Scan(&current)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if current.Valid {
				return persistence.ErrDuplicate
			}

			if _, err := r.helper.ExecTx(ctx, tx, `
				UPDATE users SET staffroom_id = ?, updated_at = ?
				WHERE id = ? AND staffroom_id IS NULL`,
				staffroom.ID,
				formatTimestamp(staffroom.UpdatedAt),
				facultyID,
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetStaffroom retrieves a staffroom by ID.
func (r *StaffroomRepository) GetStaffroom(ctx context.Context, id string) (persistence.Staffroom, error) {
	if id == "" {
		return persistence.Staffroom{}, persistence.ErrNotFound
	}
	staffroom, err := scanStaffroom(r.helper.QueryRow(ctx, `SELECT `+staffroomColumns+` FROM staffrooms WHERE id = ?`, id))
	if err != nil {
		return persistence.Staffroom{}, r.mapper.MapError(err)
	}
	return staffroom, nil
}

// ListStaffrooms returns all staffrooms ordered by name.
func (r *StaffroomRepository) ListStaffrooms(ctx context.Context) ([]persistence.Staffroom, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+staffroomColumns+` FROM staffrooms ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var staffrooms []persistence.Staffroom
	for rows.Next() {
		staffroom, err := scanStaffroom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		staffrooms = append(staffrooms, staffroom)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return staffrooms, nil
}

func scanStaffroom(row rowScanner) (persistence.Staffroom, error) {
	var (
		staffroom            persistence.Staffroom
		location             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&staffroom.ID, &staffroom.Name, &location, &createdAt, &updatedAt); err != nil {
		return persistence.Staffroom{}, err
	}
	staffroom.Location = stringPointer(location)

	var err error
	if staffroom.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Staffroom{}, err
	}
	if staffroom.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Staffroom{}, err
	}
	return staffroom, nil
}
