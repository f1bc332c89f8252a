package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Attendance statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

func IsValidStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Record is one student's attendance for one batch session (batch + date).
type Record struct {
	ID        string    `json:"id" db:"id"`
	BatchID   string    `json:"batch_id" db:"batch_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Date      time.Time `json:"date" db:"date"` // session day, UTC midnight
	Status    string    `json:"status" db:"status"`
	MarkedBy  string    `json:"marked_by" db:"marked_by"` // user ID of the marker
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Mark is one entry of a marking request.
type Mark struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late"`
}

// MarkSession is a bulk marking request for one batch session.
type MarkSession struct {
	BatchID string `json:"batch_id" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Marks   []Mark `json:"marks" validate:"required,min=1,dive"`
}

func (ms *MarkSession) Validate(validate *validator.Validate) error {
	return validate.Struct(ms)
}
