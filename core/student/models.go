package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shikshahq/shiksha/core"
)

// Admission statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Student is an admission record. It references a credential record (UserID)
// but does not own it; activating the credential is the approval side effect.
type Student struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	GuardianName string    `json:"guardian_name" db:"guardian_name"`
	Phone        string    `json:"phone" db:"phone"`
	Grade        string    `json:"grade" db:"grade"`
	BatchID      string    `json:"batch_id,omitempty" db:"batch_id"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewStudent contains information needed to file an admission.
type NewStudent struct {
	Name         string `json:"name" validate:"required"`
	GuardianName string `json:"guardian_name" validate:"required"`
	Phone        string `json:"phone" validate:"required,min=7"`
	Grade        string `json:"grade" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Grade = core.CleanString(ns.Grade)
	return validate.Struct(ns)
}

type UpdateStudent struct {
	Name         string `json:"name"`
	GuardianName string `json:"guardian_name"`
	Phone        string `json:"phone" validate:"omitempty,min=7"`
	Grade        string `json:"grade"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.GuardianName = core.CleanString(us.GuardianName)
	us.Phone = core.CleanString(us.Phone)
	us.Grade = core.CleanString(us.Grade)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Status  string `query:"status"`
	BatchID string `query:"batch_id"`
	Grade   string `query:"grade"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
