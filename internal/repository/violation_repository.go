package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskops/sla-service/internal/domain"
)

// ViolationRepository stores breached milestones.
type ViolationRepository interface {
	// CreateIfAbsent inserts v unless a violation for the same entity and milestone
	// exists. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, v *domain.Violation) (bool, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.Violation, error)
}

type violationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository builds repository.
func NewViolationRepository(pool *pgxpool.Pool) ViolationRepository {
	return &violationRepository{pool: pool}
}

func (r *violationRepository) CreateIfAbsent(ctx context.Context, v *domain.Violation) (bool, error) {
	const query = `
        INSERT INTO sla_violations (entity_type, entity_id, policy_id, milestone, target_time, breach_time, actual_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (entity_type, entity_id, milestone) DO NOTHING
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		v.EntityType,
		v.EntityID,
		v.PolicyID,
		v.Milestone,
		v.TargetTime,
		v.BreachTime,
		v.ActualTime,
	).Scan(&v.ID, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *violationRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.Violation, error) {
	const query = `
        SELECT id, entity_type, entity_id, policy_id, milestone, target_time, breach_time, actual_time, created_at
        FROM sla_violations WHERE entity_type=$1 AND entity_id=$2 ORDER BY target_time ASC`
	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Violation
	for rows.Next() {
		var v domain.Violation
		if err := rows.Scan(
			&v.ID,
			&v.EntityType,
			&v.EntityID,
			&v.PolicyID,
			&v.Milestone,
			&v.TargetTime,
			&v.BreachTime,
			&v.ActualTime,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
