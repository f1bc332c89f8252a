package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

// studentRow maps the nullable batch_id column.
type studentRow struct {
	student.Student
	BatchID sql.NullString `db:"batch_id"`
}

func (r studentRow) model() student.Student {
	st := r.Student
	st.BatchID = r.BatchID.String
	return st
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	st.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO students (id, user_id, name, guardian_name, phone, grade, batch_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)`,
		st.ID, st.UserID, st.Name, st.GuardianName, st.Phone, st.Grade, st.BatchID, st.Status, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM students WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by ID")
	}
	return row.model(), nil
}

func (repo studentRepository) GetStudentByUserID(ctx context.Context, userID string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM students WHERE user_id = $1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by user ID")
	}
	return row.model(), nil
}

func (repo studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	query := `SELECT * FROM students WHERE 1=1`
	var args []interface{}
	if filter.Search != "" {
		query += ` AND (name ILIKE ? OR guardian_name ILIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	if filter.Grade != "" {
		query += ` AND grade = ?`
		args = append(args, filter.Grade)
	}
	query = repo.db.Rebind(query + ` ORDER BY created_at DESC`)

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.model())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE students
		SET name = $1, guardian_name = $2, phone = $3, grade = $4, updated_at = $5
		WHERE id = $6`,
		st.Name, st.GuardianName, st.Phone, st.Grade, st.UpdatedAt, st.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}

func (repo studentRepository) SetStudentStatus(ctx context.Context, id, status string) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "setting student status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, id)
}

func (repo studentRepository) AssignBatch(ctx context.Context, id, batchID string) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students SET batch_id = NULLIF($1, ''), updated_at = $2 WHERE id = $3`, batchID, time.Now().UTC(), id)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "assigning batch")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, id)
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}
