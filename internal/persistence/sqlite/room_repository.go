package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/campus-scheduler/internal/persistence"
)

const roomColumns = `id, name, type, capacity, location, created_at, updated_at`

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO rooms (id, name, type, capacity, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Type,
		room.Capacity,
		nullableString(room.Location),
		formatTimestamp(room.CreatedAt),
		formatTimestamp(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom updates an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE rooms
		SET name = ?, type = ?, capacity = ?, location = ?, updated_at = ?
		WHERE id = ?`,
		room.Name,
		room.Type,
		room.Capacity,
		nullableString(room.Location),
		formatTimestamp(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return affectedOne(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	room, err := scanRoom(r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns rooms ordered by name, optionally restricted to one type.
func (r *RoomRepository) ListRooms(ctx context.Context, roomType string) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	var args []any
	if roomType != "" {
		query += ` WHERE type = ?`
		args = append(args, roomType)
	}
	query += ` ORDER BY name COLLATE NOCASE ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Rooms still referenced by timetable entries are
// rejected with ErrForeignKeyViolation; their bookings are removed with them.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return affectedOne(result)
	})
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		location             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.Type, &room.Capacity, &location, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, err
	}
	room.Location = stringPointer(location)

	var err error
	if room.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
