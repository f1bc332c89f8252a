package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) UpsertRecords(ctx context.Context, recs []attendance.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO attendance (id, batch_id, student_id, date, status, marked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (batch_id, student_id, date)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return errors.Wrap(err, "preparing upsert")
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if _, err = stmt.ExecContext(ctx,
			rec.ID, rec.BatchID, rec.StudentID, rec.Date, rec.Status, rec.MarkedBy, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return errors.Wrap(err, "upserting attendance record")
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo attendanceRepository) QueryByBatchDate(ctx context.Context, batchID string, date time.Time) ([]attendance.Record, error) {
	var recs []attendance.Record
	err := repo.db.SelectContext(ctx, &recs,
		`SELECT * FROM attendance WHERE batch_id = $1 AND date = $2 ORDER BY student_id`, batchID, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance by batch and date")
	}
	return recs, nil
}

func (repo attendanceRepository) QueryByStudent(ctx context.Context, studentID string, from, to time.Time) ([]attendance.Record, error) {
	query := `SELECT * FROM attendance WHERE student_id = ?`
	args := []interface{}{studentID}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query = repo.db.Rebind(query + ` ORDER BY date DESC`)

	var recs []attendance.Record
	if err := repo.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance by student")
	}
	return recs, nil
}
