package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-intake-api/internal/models"
)

// DivisionRepository persists divisions and their ordered fixed slots.
type DivisionRepository struct {
	db *sqlx.DB
}

// NewDivisionRepository creates a new repository instance.
func NewDivisionRepository(db *sqlx.DB) *DivisionRepository {
	return &DivisionRepository{db: db}
}

// List returns all divisions with their fixed slots in workbook order.
func (r *DivisionRepository) List(ctx context.Context) ([]models.Division, error) {
	const divisionQuery = `SELECT id, name, created_at FROM divisions ORDER BY name`
	var divisions []models.Division
	if err := r.db.SelectContext(ctx, &divisions, divisionQuery); err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	if len(divisions) == 0 {
		return divisions, nil
	}

	const slotQuery = `SELECT id, division_id, position, day, period, teacher, room, subject_id FROM division_fixed_slots ORDER BY division_id, position`
	var slots []models.FixedSlot
	if err := r.db.SelectContext(ctx, &slots, slotQuery); err != nil {
		return nil, fmt.Errorf("list fixed slots: %w", err)
	}

	byDivision := make(map[string][]models.FixedSlot, len(divisions))
	for _, slot := range slots {
		byDivision[slot.DivisionID] = append(byDivision[slot.DivisionID], slot)
	}
	for i := range divisions {
		divisions[i].Slots = byDivision[divisions[i].ID]
	}
	return divisions, nil
}

// Count returns the number of stored divisions.
func (r *DivisionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM divisions`); err != nil {
		return 0, fmt.Errorf("count divisions: %w", err)
	}
	return count, nil
}

// ReplaceAll deletes every division (cascading its slots) and inserts the new
// batch inside one transaction. Slot rows carry their workbook position so
// the per-division order survives storage.
func (r *DivisionRepository) ReplaceAll(ctx context.Context, divisions []models.Division) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace divisions: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM divisions`); err != nil {
		return fmt.Errorf("clear divisions: %w", err)
	}

	const divisionQuery = `INSERT INTO divisions (id, name, created_at) VALUES (:id, :name, :created_at)`
	const slotQuery = `INSERT INTO division_fixed_slots (id, division_id, position, day, period, teacher, room, subject_id)
		VALUES (:id, :division_id, :position, :day, :period, :teacher, :room, :subject_id)`

	now := time.Now().UTC()
	for i := range divisions {
		if divisions[i].ID == "" {
			divisions[i].ID = uuid.NewString()
		}
		if divisions[i].CreatedAt.IsZero() {
			divisions[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, divisionQuery, divisions[i]); err != nil {
			return fmt.Errorf("insert division %s: %w", divisions[i].Name, err)
		}
		for j := range divisions[i].Slots {
			slot := &divisions[i].Slots[j]
			if slot.ID == "" {
				slot.ID = uuid.NewString()
			}
			slot.DivisionID = divisions[i].ID
			slot.Position = j
			if _, err := tx.NamedExecContext(ctx, slotQuery, *slot); err != nil {
				return fmt.Errorf("insert fixed slot %d of %s: %w", j, divisions[i].Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace divisions: %w", err)
	}
	return nil
}
