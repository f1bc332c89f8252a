package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/user"
)

var (
	ErrNotFound     = errors.New("student not found")
	ErrNotPending   = errors.New("admission is not pending")
	ErrNoCredential = errors.New("student has no linked account")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string) (Student, error)
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		SetStudentStatus(ctx context.Context, id, status string) (Student, error)
		AssignBatch(ctx context.Context, id, batchID string) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
	}
)

func NewService(repo Repository, usrSvc *user.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// Admit files a new admission record linked to a credential record.
// The admission starts pending; the credential stays inactive until approval.
func (svc *Service) Admit(ctx context.Context, userID string, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		UserID:       userID,
		Name:         ns.Name,
		GuardianName: ns.GuardianName,
		Phone:        ns.Phone,
		Grade:        ns.Grade,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

// Approve marks a pending admission approved and activates the linked
// credential record so the student can sign in.
func (svc *Service) Approve(ctx context.Context, id string) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if st.Status != StatusPending {
		return Student{}, ErrNotPending
	}
	if st.UserID == "" {
		return Student{}, ErrNoCredential
	}
	if st, err = svc.repo.SetStudentStatus(ctx, id, StatusApproved); err != nil {
		return Student{}, err
	}
	if _, err = svc.usrSvc.SetActive(ctx, st.UserID, true); err != nil {
		return Student{}, errors.Wrap(err, "activating account")
	}
	return st, nil
}

// Reject marks a pending admission rejected; the credential stays inactive.
func (svc *Service) Reject(ctx context.Context, id string) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if st.Status != StatusPending {
		return Student{}, ErrNotPending
	}
	return svc.repo.SetStudentStatus(ctx, id, StatusRejected)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

// DisplayName resolves the profile name for session claims; falls back to the
// caller's stored name when no profile exists yet.
func (svc *Service) DisplayName(ctx context.Context, userID string) (string, error) {
	st, err := svc.repo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return st.Name, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.Name != "" {
		st.Name = us.Name
	}
	if us.GuardianName != "" {
		st.GuardianName = us.GuardianName
	}
	if us.Phone != "" {
		st.Phone = us.Phone
	}
	if us.Grade != "" {
		st.Grade = us.Grade
	}
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *Service) AssignBatch(ctx context.Context, id, batchID string) (Student, error) {
	return svc.repo.AssignBatch(ctx, id, batchID)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
