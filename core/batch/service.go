package batch

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("batch not found")
	ErrBatchFull       = errors.New("batch is at capacity")
	ErrAlreadyEnrolled = errors.New("student already enrolled in this batch")
)

type (
	Repository interface {
		CreateBatch(ctx context.Context, b Batch) (Batch, error)
		GetBatchByID(ctx context.Context, id string) (Batch, error)
		FilterBatches(ctx context.Context, filter QueryFilter) ([]Batch, error)
		UpdateBatch(ctx context.Context, b Batch) (Batch, error)
		DeleteBatchesByID(ctx context.Context, ids ...string) error

		EnrollStudent(ctx context.Context, batchID, studentID string) error
		WithdrawStudent(ctx context.Context, batchID, studentID string) error
		CountEnrolled(ctx context.Context, batchID string) (int, error)
		QueryEnrolledStudentIDs(ctx context.Context, batchID string) ([]string, error)
		QueryBatchesByStudent(ctx context.Context, studentID string) ([]Batch, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nb NewBatch) (Batch, error) {
	now := time.Now().UTC()
	b := Batch{
		Name:      nb.Name,
		Subject:   nb.Subject,
		TeacherID: nb.TeacherID,
		Capacity:  nb.Capacity,
		Slots:     nb.Slots,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateBatch(ctx, b)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Batch, error) {
	return svc.repo.GetBatchByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Batch, error) {
	return svc.repo.FilterBatches(ctx, filter)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Batch, error) {
	return svc.repo.QueryBatchesByStudent(ctx, studentID)
}

func (svc *Service) EnrolledStudentIDs(ctx context.Context, batchID string) ([]string, error) {
	return svc.repo.QueryEnrolledStudentIDs(ctx, batchID)
}

// Enroll adds a student to a batch, honoring its capacity. Capacity is
// advisory, not transactional: two concurrent enrolls on the last seat may
// both pass the check; the institute staff resolves such overbooking.
func (svc *Service) Enroll(ctx context.Context, batchID, studentID string) error {
	b, err := svc.repo.GetBatchByID(ctx, batchID)
	if err != nil {
		return err
	}
	cnt, err := svc.repo.CountEnrolled(ctx, batchID)
	if err != nil {
		return errors.Wrap(err, "counting enrolled students")
	}
	if cnt >= b.Capacity {
		return ErrBatchFull
	}
	return svc.repo.EnrollStudent(ctx, batchID, studentID)
}

func (svc *Service) Withdraw(ctx context.Context, batchID, studentID string) error {
	return svc.repo.WithdrawStudent(ctx, batchID, studentID)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteBatchesByID(ctx, ids...)
}
