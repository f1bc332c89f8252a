package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/teacherprofile"
)

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacherprofile.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *sqlx.DB) *teacherRepository {
	return &teacherRepository{db: db}
}

// profileRow maps the subjects array column.
type profileRow struct {
	teacherprofile.Profile
	Subjects pq.StringArray `db:"subjects"`
}

func (r profileRow) model() teacherprofile.Profile {
	p := r.Profile
	p.Subjects = []string(r.Subjects)
	return p
}

func (repo teacherRepository) CreateProfile(ctx context.Context, p teacherprofile.Profile) (teacherprofile.Profile, error) {
	p.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO teacher_profiles (id, user_id, name, phone, subjects, qualifications, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Name, p.Phone, pq.StringArray(p.Subjects), p.Qualifications, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return teacherprofile.Profile{}, errors.Wrap(err, "inserting teacher profile")
	}
	return p, nil
}

func (repo teacherRepository) GetProfileByID(ctx context.Context, id string) (teacherprofile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher_profiles WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return teacherprofile.Profile{}, teacherprofile.ErrNotFound
		}
		return teacherprofile.Profile{}, errors.Wrap(err, "getting teacher profile by ID")
	}
	return row.model(), nil
}

func (repo teacherRepository) GetProfileByUserID(ctx context.Context, userID string) (teacherprofile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher_profiles WHERE user_id = $1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return teacherprofile.Profile{}, teacherprofile.ErrNotFound
		}
		return teacherprofile.Profile{}, errors.Wrap(err, "getting teacher profile by user ID")
	}
	return row.model(), nil
}

func (repo teacherRepository) FilterProfiles(ctx context.Context, filter teacherprofile.QueryFilter) ([]teacherprofile.Profile, error) {
	query := `SELECT * FROM teacher_profiles WHERE 1=1`
	var args []interface{}
	if filter.Search != "" {
		query += ` AND name ILIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Subject != "" {
		query += ` AND ? = ANY(subjects)`
		args = append(args, filter.Subject)
	}
	query = repo.db.Rebind(query + ` ORDER BY created_at DESC`)

	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering teacher profiles")
	}
	profs := make([]teacherprofile.Profile, 0, len(rows))
	for _, row := range rows {
		profs = append(profs, row.model())
	}
	return profs, nil
}

func (repo teacherRepository) UpdateProfile(ctx context.Context, p teacherprofile.Profile) (teacherprofile.Profile, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE teacher_profiles
		SET name = $1, phone = $2, subjects = $3, qualifications = $4, updated_at = $5
		WHERE id = $6`,
		p.Name, p.Phone, pq.StringArray(p.Subjects), p.Qualifications, p.UpdatedAt, p.ID)
	if err != nil {
		return teacherprofile.Profile{}, errors.Wrap(err, "updating teacher profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacherprofile.Profile{}, teacherprofile.ErrNotFound
	}
	return p, nil
}

func (repo teacherRepository) SetProfileStatus(ctx context.Context, id, status string) (teacherprofile.Profile, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE teacher_profiles SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return teacherprofile.Profile{}, errors.Wrap(err, "setting teacher profile status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacherprofile.Profile{}, teacherprofile.ErrNotFound
	}
	return repo.GetProfileByID(ctx, id)
}

func (repo teacherRepository) DeleteProfilesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM teacher_profiles WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting teacher profiles")
	}
	return nil
}
