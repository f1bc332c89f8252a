package teacherprofile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shikshahq/shiksha/core"
)

// Approval statuses; mirror the student admission flow.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Profile is a staff record. References a credential record, does not own it.
type Profile struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Name           string    `json:"name" db:"name"`
	Phone          string    `json:"phone" db:"phone"`
	Subjects       []string  `json:"subjects" db:"-"`
	Qualifications string    `json:"qualifications" db:"qualifications"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type NewProfile struct {
	Name           string   `json:"name" validate:"required"`
	Phone          string   `json:"phone" validate:"required,min=7"`
	Subjects       []string `json:"subjects" validate:"required,min=1,dive,required"`
	Qualifications string   `json:"qualifications"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Phone = core.CleanString(np.Phone)
	for i, s := range np.Subjects {
		np.Subjects[i] = core.CleanString(s)
	}
	np.Qualifications = core.CleanString(np.Qualifications)
	return validate.Struct(np)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Status  string `query:"status"`
	Subject string `query:"subject"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Subject = core.CleanString(qf.Subject)
}
