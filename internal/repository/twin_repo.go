package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"twin-dashboard/internal/model"
)

type TwinRepository struct {
	pool *pgxpool.Pool
}

func NewTwinRepository(pool *pgxpool.Pool) *TwinRepository {
	return &TwinRepository{pool: pool}
}

func (r *TwinRepository) Create(ctx context.Context, t model.Twin) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO twins (id, name, description, status, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Description, t.Status, t.OwnerID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create twin: %w", err)
	}
	return nil
}

func (r *TwinRepository) FindByID(ctx context.Context, id string) (model.Twin, error) {
	var t model.Twin
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, status, owner_id, created_at
		 FROM twins WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.OwnerID, &t.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Twin{}, model.ErrTwinNotFound
	}
	if err != nil {
		return model.Twin{}, fmt.Errorf("find twin: %w", err)
	}
	return t, nil
}

func (r *TwinRepository) List(ctx context.Context) ([]model.Twin, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, status, owner_id, created_at
		 FROM twins ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list twins: %w", err)
	}
	defer rows.Close()

	twins := make([]model.Twin, 0)
	for rows.Next() {
		var t model.Twin
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan twin: %w", err)
		}
		twins = append(twins, t)
	}
	return twins, rows.Err()
}
