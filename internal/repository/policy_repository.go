package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskops/sla-service/internal/sla"
)

// PolicyRepository persists SLA policies together with their targets.
type PolicyRepository interface {
	Create(ctx context.Context, policy *sla.Policy) error
	GetByID(ctx context.Context, id string) (*sla.Policy, error)
	GetDefault(ctx context.Context) (*sla.Policy, error)
	List(ctx context.Context) ([]sla.Policy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

// Create inserts the policy and its targets in one transaction. Targets keep
// their slice position so lookups match in the same order later.
func (r *policyRepository) Create(ctx context.Context, policy *sla.Policy) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if policy.Default {
			if _, err := tx.Exec(ctx, `UPDATE sla_policies SET is_default=FALSE, updated_at=NOW() WHERE is_default`); err != nil {
				return err
			}
		}

		const insertPolicy = `
            INSERT INTO sla_policies (name, description, is_active, is_default)
            VALUES ($1,$2,$3,$4)
            RETURNING id`
		if err := tx.QueryRow(ctx, insertPolicy,
			policy.Name,
			policy.Description,
			policy.Active,
			policy.Default,
		).Scan(&policy.ID); err != nil {
			return err
		}

		const insertTarget = `
            INSERT INTO sla_targets (policy_id, position, priority,
                first_response_magnitude, first_response_unit,
                next_response_magnitude, next_response_unit,
                resolution_magnitude, resolution_unit, operational_hours)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
            RETURNING id`
		for i := range policy.Targets {
			t := &policy.Targets[i]
			frMag, frUnit := durationColumns(t.FirstResponse)
			nrMag, nrUnit := durationColumns(t.NextResponse)
			resMag, resUnit := durationColumns(t.Resolution)
			if err := tx.QueryRow(ctx, insertTarget,
				policy.ID,
				i,
				t.Priority,
				frMag, frUnit,
				nrMag, nrUnit,
				resMag, resUnit,
				t.OperationalHours,
			).Scan(&t.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *policyRepository) GetByID(ctx context.Context, id string) (*sla.Policy, error) {
	const query = `SELECT id, name, description, is_active, is_default FROM sla_policies WHERE id=$1`
	policy, err := r.fetchSingle(ctx, query, id)
	return policy, noRowsOnInvalidID(err)
}

func (r *policyRepository) GetDefault(ctx context.Context) (*sla.Policy, error) {
	const query = `SELECT id, name, description, is_active, is_default FROM sla_policies WHERE is_default`
	return r.fetchSingle(ctx, query)
}

func (r *policyRepository) fetchSingle(ctx context.Context, query string, args ...any) (*sla.Policy, error) {
	var p sla.Policy
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.Default); err != nil {
		return nil, err
	}
	targets, err := r.targets(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Targets = targets
	return &p, nil
}

func (r *policyRepository) List(ctx context.Context) ([]sla.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, is_active, is_default FROM sla_policies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	var policies []sla.Policy
	for rows.Next() {
		var p sla.Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.Default); err != nil {
			rows.Close()
			return nil, err
		}
		policies = append(policies, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range policies {
		targets, err := r.targets(ctx, policies[i].ID)
		if err != nil {
			return nil, err
		}
		policies[i].Targets = targets
	}
	return policies, nil
}

func (r *policyRepository) targets(ctx context.Context, policyID string) ([]sla.Target, error) {
	const query = `
        SELECT id, priority, first_response_magnitude, first_response_unit,
               next_response_magnitude, next_response_unit,
               resolution_magnitude, resolution_unit, operational_hours
        FROM sla_targets WHERE policy_id=$1 ORDER BY position ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sla.Target
	for rows.Next() {
		var (
			t                       sla.Target
			frMag, nrMag, resMag    *int
			frUnit, nrUnit, resUnit *string
		)
		if err := rows.Scan(&t.ID, &t.Priority, &frMag, &frUnit, &nrMag, &nrUnit, &resMag, &resUnit, &t.OperationalHours); err != nil {
			return nil, err
		}
		t.FirstResponse = durationFromColumns(frMag, frUnit)
		t.NextResponse = durationFromColumns(nrMag, nrUnit)
		t.Resolution = durationFromColumns(resMag, resUnit)
		result = append(result, t)
	}
	return result, rows.Err()
}

func durationColumns(d *sla.Duration) (*int, *string) {
	if d == nil {
		return nil, nil
	}
	mag := d.Magnitude
	unit := string(d.Unit)
	return &mag, &unit
}

func durationFromColumns(mag *int, unit *string) *sla.Duration {
	if mag == nil {
		return nil
	}
	d := &sla.Duration{Magnitude: *mag, Unit: sla.UnitHours}
	if unit != nil {
		d.Unit = sla.Unit(*unit)
	}
	return d
}
