package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskops/sla-service/internal/sla"
)

// CalendarRepository persists working hours and holidays.
type CalendarRepository interface {
	ReplaceDays(ctx context.Context, days []sla.BusinessDay) error
	ListDays(ctx context.Context) ([]sla.BusinessDay, error)
	AddHoliday(ctx context.Context, holiday *sla.Holiday) error
	ListHolidays(ctx context.Context) ([]sla.Holiday, error)
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarRepository instantiates repository.
func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

// ReplaceDays swaps the whole weekly schedule atomically.
func (r *calendarRepository) ReplaceDays(ctx context.Context, days []sla.BusinessDay) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM business_days`); err != nil {
			return err
		}
		const insert = `
            INSERT INTO business_days (weekday, start_time, end_time, is_working_day)
            VALUES ($1,$2,$3,$4)`
		for _, d := range days {
			if _, err := tx.Exec(ctx, insert, int(d.Weekday), clockToTime(d.Start), clockToTime(d.End), d.WorkingDay); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *calendarRepository) ListDays(ctx context.Context) ([]sla.BusinessDay, error) {
	rows, err := r.pool.Query(ctx, `SELECT weekday, start_time, end_time, is_working_day FROM business_days ORDER BY weekday ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sla.BusinessDay
	for rows.Next() {
		var (
			weekday    int16
			start, end pgtype.Time
			working    bool
		)
		if err := rows.Scan(&weekday, &start, &end, &working); err != nil {
			return nil, err
		}
		result = append(result, sla.BusinessDay{
			Weekday:    sla.Weekday(weekday),
			Start:      timeToClock(start),
			End:        timeToClock(end),
			WorkingDay: working,
		})
	}
	return result, rows.Err()
}

func (r *calendarRepository) AddHoliday(ctx context.Context, holiday *sla.Holiday) error {
	const query = `
        INSERT INTO holidays (name, date, is_recurring, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	date := pgtype.Date{Time: dateOnly(holiday.Date), Valid: true}
	return r.pool.QueryRow(ctx, query, holiday.Name, date, holiday.Recurring, holiday.Active).Scan(&holiday.ID)
}

func (r *calendarRepository) ListHolidays(ctx context.Context) ([]sla.Holiday, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, date, is_recurring, is_active FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sla.Holiday
	for rows.Next() {
		var (
			h    sla.Holiday
			date pgtype.Date
		)
		if err := rows.Scan(&h.ID, &h.Name, &date, &h.Recurring, &h.Active); err != nil {
			return nil, err
		}
		h.Date = date.Time
		result = append(result, h)
	}
	return result, rows.Err()
}

const microsPerMinute = int64(time.Minute / time.Microsecond)

func clockToTime(c sla.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * microsPerMinute, Valid: true}
}

func timeToClock(t pgtype.Time) sla.ClockTime {
	if !t.Valid {
		return 0
	}
	return sla.ClockTime(t.Microseconds / microsPerMinute)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
