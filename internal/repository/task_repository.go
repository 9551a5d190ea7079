package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskops/sla-service/internal/domain"
)

// TaskFilter captures task search parameters.
type TaskFilter struct {
	TicketID  *string
	Statuses  []domain.TaskStatus
	Paused    *bool
	HasPolicy bool
	// Keyset orders by id ascending so pages can resume with AfterID.
	Keyset    bool
	AfterID   string
	Limit     int
	Offset    int
}

// TaskRepository encapsulates task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListWithFilter(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, ticket_id, title, description, status, priority, sla_policy_id, is_sla_paused,
               sla_pause_reason, completed_at, due_date, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (ticket_id, title, description, status, priority, sla_policy_id, is_sla_paused,
            sla_pause_reason, completed_at, due_date, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.TicketID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.SLAPolicyID,
		task.SLAPaused,
		task.SLAPauseReason,
		task.CompletedAt,
		task.DueDate,
		task.CreatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, description=$2, status=$3, priority=$4, sla_policy_id=$5,
            is_sla_paused=$6, sla_pause_reason=$7, completed_at=$8, due_date=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.SLAPolicyID,
		task.SLAPaused,
		task.SLAPauseReason,
		task.CompletedAt,
		task.DueDate,
		task.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	return task, noRowsOnInvalidID(err)
}

func (r *taskRepository) ListWithFilter(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.HasPolicy {
		clauses = append(clauses, "sla_policy_id IS NOT NULL")
	}
	if filter.Paused != nil {
		args = append(args, *filter.Paused)
		clauses = append(clauses, fmt.Sprintf("is_sla_paused=$%d", len(args)))
	}

	order := "updated_at DESC"
	if filter.Keyset || filter.AfterID != "" {
		order = "id ASC"
	}
	if filter.AfterID != "" {
		args = append(args, filter.AfterID)
		clauses = append(clauses, fmt.Sprintf("id > $%d", len(args)))
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		taskColumns, strings.Join(clauses, " AND "), order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.TicketID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.SLAPolicyID,
		&task.SLAPaused,
		&task.SLAPauseReason,
		&task.CompletedAt,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
