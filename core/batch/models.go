package batch

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shikshahq/shiksha/core"
)

// Slot is one weekly teaching session of a batch.
type Slot struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Start   string `json:"start" validate:"required,len=5"` // "16:00"
	End     string `json:"end" validate:"required,len=5"`
}

type Batch struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	TeacherID string    `json:"teacher_id,omitempty" db:"teacher_id"`
	Capacity  int       `json:"capacity" db:"capacity"`
	Slots     []Slot    `json:"slots" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type NewBatch struct {
	Name      string `json:"name" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacher_id"`
	Capacity  int    `json:"capacity" validate:"required,min=1"`
	Slots     []Slot `json:"slots" validate:"required,min=1,dive"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Subject = core.CleanString(nb.Subject)
	return validate.Struct(nb)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Subject   string `query:"subject"`
	TeacherID string `query:"teacher_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject)
}
