package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/fee"
)

type feeRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *sqlx.DB) *feeRepository {
	return &feeRepository{db: db}
}

func (repo feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	f.ID = uuid.NewString()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO fees (id, student_id, month, amount, paid, status, due_date, created_at, updated_at)
		VALUES (:id, :student_id, :month, :amount, :paid, :status, :due_date, :created_at, :updated_at)`, f)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fee.Fee{}, fee.ErrDuplicate
		}
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return f, nil
}

func (repo feeRepository) GetFeeByID(ctx context.Context, id string) (fee.Fee, error) {
	var f fee.Fee
	if err := repo.db.GetContext(ctx, &f, `SELECT * FROM fees WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "getting fee by ID")
	}
	return f, nil
}

func (repo feeRepository) FilterFees(ctx context.Context, filter fee.QueryFilter) ([]fee.Fee, error) {
	query := `SELECT * FROM fees WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	if filter.Month != "" {
		query += ` AND month = ?`
		args = append(args, filter.Month)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query = repo.db.Rebind(query + ` ORDER BY month DESC`)

	var fees []fee.Fee
	if err := repo.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering fees")
	}
	return fees, nil
}

func (repo feeRepository) UpdateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE fees
		SET amount = :amount, paid = :paid, status = :status, due_date = :due_date, updated_at = :updated_at
		WHERE id = :id`, f)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "updating fee")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fee.Fee{}, fee.ErrNotFound
	}
	return f, nil
}

// AddPayment stores the payment and the refreshed fee atomically.
func (repo feeRepository) AddPayment(ctx context.Context, p fee.Payment, f fee.Fee) (fee.Fee, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	p.ID = uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO fee_payments (id, fee_id, amount, method, reference, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.FeeID, p.Amount, p.Method, p.Reference, p.PaidAt); err != nil {
		return fee.Fee{}, errors.Wrap(err, "inserting payment")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE fees SET paid = $1, status = $2, updated_at = $3 WHERE id = $4`,
		f.Paid, f.Status, f.UpdatedAt, f.ID)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "updating fee")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fee.Fee{}, fee.ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fee.Fee{}, errors.Wrap(err, "committing transaction")
	}
	return f, nil
}

func (repo feeRepository) QueryPayments(ctx context.Context, feeID string) ([]fee.Payment, error) {
	var payments []fee.Payment
	err := repo.db.SelectContext(ctx, &payments,
		`SELECT * FROM fee_payments WHERE fee_id = $1 ORDER BY paid_at`, feeID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}
