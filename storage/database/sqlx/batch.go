package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/batch"
)

type batchRepository struct {
	db *sqlx.DB
}

var _ batch.Repository = (*batchRepository)(nil)

func NewBatchRepository(db *sqlx.DB) *batchRepository {
	return &batchRepository{db: db}
}

// batchRow maps the nullable teacher_id and the slots JSON column.
type batchRow struct {
	batch.Batch
	TeacherID sql.NullString `db:"teacher_id"`
	Slots     []byte         `db:"slots"`
}

func (r batchRow) model() (batch.Batch, error) {
	b := r.Batch
	b.TeacherID = r.TeacherID.String
	if len(r.Slots) > 0 {
		if err := json.Unmarshal(r.Slots, &b.Slots); err != nil {
			return batch.Batch{}, errors.Wrap(err, "decoding slots")
		}
	}
	return b, nil
}

func (repo batchRepository) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	b.ID = uuid.NewString()
	slots, err := json.Marshal(b.Slots)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "encoding slots")
	}
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO batches (id, name, subject, teacher_id, capacity, slots, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
		b.ID, b.Name, b.Subject, b.TeacherID, b.Capacity, slots, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "inserting batch")
	}
	return b, nil
}

func (repo batchRepository) GetBatchByID(ctx context.Context, id string) (batch.Batch, error) {
	var row batchRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM batches WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return batch.Batch{}, batch.ErrNotFound
		}
		return batch.Batch{}, errors.Wrap(err, "getting batch by ID")
	}
	return row.model()
}

func (repo batchRepository) FilterBatches(ctx context.Context, filter batch.QueryFilter) ([]batch.Batch, error) {
	query := `SELECT * FROM batches WHERE 1=1`
	var args []interface{}
	if filter.Search != "" {
		query += ` AND (name ILIKE ? OR subject ILIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if filter.TeacherID != "" {
		query += ` AND teacher_id = ?`
		args = append(args, filter.TeacherID)
	}
	query = repo.db.Rebind(query + ` ORDER BY created_at DESC`)

	var rows []batchRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering batches")
	}
	return rowsToBatches(rows)
}

func rowsToBatches(rows []batchRow) ([]batch.Batch, error) {
	batches := make([]batch.Batch, 0, len(rows))
	for _, row := range rows {
		b, err := row.model()
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func (repo batchRepository) UpdateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	slots, err := json.Marshal(b.Slots)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "encoding slots")
	}
	res, err := repo.db.ExecContext(ctx, `
		UPDATE batches
		SET name = $1, subject = $2, teacher_id = NULLIF($3, ''), capacity = $4, slots = $5, updated_at = $6
		WHERE id = $7`,
		b.Name, b.Subject, b.TeacherID, b.Capacity, slots, b.UpdatedAt, b.ID)
	if err != nil {
		return batch.Batch{}, errors.Wrap(err, "updating batch")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return batch.Batch{}, batch.ErrNotFound
	}
	return b, nil
}

func (repo batchRepository) DeleteBatchesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM batches WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting batches")
	}
	return nil
}

func (repo batchRepository) EnrollStudent(ctx context.Context, batchID, studentID string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO batch_students (batch_id, student_id) VALUES ($1, $2)`, batchID, studentID)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return batch.ErrAlreadyEnrolled
		}
		return errors.Wrap(err, "enrolling student")
	}
	return nil
}

func (repo batchRepository) WithdrawStudent(ctx context.Context, batchID, studentID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM batch_students WHERE batch_id = $1 AND student_id = $2`, batchID, studentID)
	if err != nil {
		return errors.Wrap(err, "withdrawing student")
	}
	return nil
}

func (repo batchRepository) CountEnrolled(ctx context.Context, batchID string) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt,
		`SELECT COUNT(*) FROM batch_students WHERE batch_id = $1`, batchID); err != nil {
		return 0, errors.Wrap(err, "counting enrolled students")
	}
	return cnt, nil
}

func (repo batchRepository) QueryEnrolledStudentIDs(ctx context.Context, batchID string) ([]string, error) {
	var ids []string
	if err := repo.db.SelectContext(ctx, &ids,
		`SELECT student_id FROM batch_students WHERE batch_id = $1 ORDER BY enrolled_at`, batchID); err != nil {
		return nil, errors.Wrap(err, "querying enrolled student IDs")
	}
	return ids, nil
}

func (repo batchRepository) QueryBatchesByStudent(ctx context.Context, studentID string) ([]batch.Batch, error) {
	var rows []batchRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT b.* FROM batches b
		JOIN batch_students bs ON bs.batch_id = b.id
		WHERE bs.student_id = $1
		ORDER BY bs.enrolled_at`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying batches by student")
	}
	return rowsToBatches(rows)
}
