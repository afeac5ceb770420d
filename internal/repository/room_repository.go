package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-intake-api/internal/models"
)

// RoomRepository handles persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new repository instance.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all rooms ordered by room number.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, room_no, capacity, room_type, equipment, created_at FROM rooms ORDER BY room_no`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Count returns the number of stored rooms.
func (r *RoomRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM rooms`); err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return count, nil
}

// ReplaceAll deletes every room and inserts the new batch inside one transaction.
func (r *RoomRepository) ReplaceAll(ctx context.Context, rooms []models.Room) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace rooms: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("clear rooms: %w", err)
	}

	const query = `INSERT INTO rooms (id, room_no, capacity, room_type, equipment, created_at)
		VALUES (:id, :room_no, :capacity, :room_type, :equipment, :created_at)`
	now := time.Now().UTC()
	for i := range rooms {
		if rooms[i].ID == "" {
			rooms[i].ID = uuid.NewString()
		}
		if rooms[i].CreatedAt.IsZero() {
			rooms[i].CreatedAt = now
		}
		if rooms[i].Equipment == nil {
			rooms[i].Equipment = pq.StringArray{}
		}
		if _, err := tx.NamedExecContext(ctx, query, rooms[i]); err != nil {
			return fmt.Errorf("insert room %s: %w", rooms[i].RoomNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace rooms: %w", err)
	}
	return nil
}
