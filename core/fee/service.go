package fee

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("fee not found")
	ErrOverpayment = errors.New("payment exceeds outstanding balance")
	ErrDuplicate   = errors.New("a fee for this student and month already exists")
)

type (
	Repository interface {
		CreateFee(ctx context.Context, f Fee) (Fee, error)
		GetFeeByID(ctx context.Context, id string) (Fee, error)
		FilterFees(ctx context.Context, filter QueryFilter) ([]Fee, error)
		UpdateFee(ctx context.Context, f Fee) (Fee, error)
		AddPayment(ctx context.Context, p Payment, f Fee) (Fee, error)
		QueryPayments(ctx context.Context, feeID string) ([]Payment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const dateLayout = "2006-01-02"

// Assess records a new monthly fee for a student.
func (svc *Service) Assess(ctx context.Context, nf NewFee) (Fee, error) {
	due, err := time.ParseInLocation(dateLayout, nf.DueDate, time.UTC)
	if err != nil {
		return Fee{}, errors.Wrap(err, "parsing due date")
	}

	now := time.Now().UTC()
	f := Fee{
		StudentID: nf.StudentID,
		Month:     nf.Month,
		Amount:    nf.Amount,
		Status:    StatusDue,
		DueDate:   due,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateFee(ctx, f)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Fee, error) {
	return svc.repo.GetFeeByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Fee, error) {
	return svc.repo.FilterFees(ctx, filter)
}

func (svc *Service) Payments(ctx context.Context, feeID string) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, feeID)
}

// RecordPayment applies a payment against a fee and refreshes its status.
func (svc *Service) RecordPayment(ctx context.Context, feeID string, np NewPayment) (Fee, error) {
	f, err := svc.repo.GetFeeByID(ctx, feeID)
	if err != nil {
		return Fee{}, err
	}
	if np.Amount > f.Balance() {
		return Fee{}, ErrOverpayment
	}

	f.Paid += np.Amount
	f.refreshStatus()
	f.UpdatedAt = time.Now().UTC()

	p := Payment{
		FeeID:     feeID,
		Amount:    np.Amount,
		Method:    np.Method,
		Reference: np.Reference,
		PaidAt:    time.Now().UTC(),
	}
	return svc.repo.AddPayment(ctx, p, f)
}
