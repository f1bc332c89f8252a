package teacherprofile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shikshahq/shiksha/core/user"
)

var (
	ErrNotFound   = errors.New("teacher profile not found")
	ErrNotPending = errors.New("application is not pending")
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		FilterProfiles(ctx context.Context, filter QueryFilter) ([]Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
		SetProfileStatus(ctx context.Context, id, status string) (Profile, error)
		DeleteProfilesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
	}
)

func NewService(repo Repository, usrSvc *user.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// Apply files a new staff application linked to a credential record.
func (svc *Service) Apply(ctx context.Context, userID string, np NewProfile) (Profile, error) {
	now := time.Now().UTC()
	p := Profile{
		UserID:         userID,
		Name:           np.Name,
		Phone:          np.Phone,
		Subjects:       np.Subjects,
		Qualifications: np.Qualifications,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateProfile(ctx, p)
}

// Approve activates the linked credential record along with the profile.
func (svc *Service) Approve(ctx context.Context, id string) (Profile, error) {
	p, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if p.Status != StatusPending {
		return Profile{}, ErrNotPending
	}
	if p, err = svc.repo.SetProfileStatus(ctx, id, StatusApproved); err != nil {
		return Profile{}, err
	}
	if _, err = svc.usrSvc.SetActive(ctx, p.UserID, true); err != nil {
		return Profile{}, errors.Wrap(err, "activating account")
	}
	return p, nil
}

func (svc *Service) Reject(ctx context.Context, id string) (Profile, error) {
	p, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if p.Status != StatusPending {
		return Profile{}, ErrNotPending
	}
	return svc.repo.SetProfileStatus(ctx, id, StatusRejected)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfileByUserID(ctx, userID)
}

// DisplayName resolves the profile name for session claims.
func (svc *Service) DisplayName(ctx context.Context, userID string) (string, error) {
	p, err := svc.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Profile, error) {
	return svc.repo.FilterProfiles(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProfilesByID(ctx, ids...)
}
