package fee

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shikshahq/shiksha/core"
)

// Fee statuses, derived from amounts; never set directly by callers.
const (
	StatusDue     = "due"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

// Fee is one month's assessed fee for one student. Amounts are in paise to
// keep the ledger integral.
type Fee struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Month     string    `json:"month" db:"month"` // "2026-04"
	Amount    int64     `json:"amount" db:"amount"`
	Paid      int64     `json:"paid" db:"paid"`
	Status    string    `json:"status" db:"status"`
	DueDate   time.Time `json:"due_date" db:"due_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (f *Fee) Balance() int64 { return f.Amount - f.Paid }

// refreshStatus recomputes Status from the amounts.
func (f *Fee) refreshStatus() {
	switch {
	case f.Paid >= f.Amount:
		f.Status = StatusPaid
	case f.Paid > 0:
		f.Status = StatusPartial
	default:
		f.Status = StatusDue
	}
}

// Payment is one payment applied against a fee.
type Payment struct {
	ID        string    `json:"id" db:"id"`
	FeeID     string    `json:"fee_id" db:"fee_id"`
	Amount    int64     `json:"amount" db:"amount"`
	Method    string    `json:"method" db:"method"` // cash, upi, card, transfer
	Reference string    `json:"reference,omitempty" db:"reference"`
	PaidAt    time.Time `json:"paid_at" db:"paid_at"` // UTC
}

type NewFee struct {
	StudentID string `json:"student_id" validate:"required"`
	Month     string `json:"month" validate:"required,datetime=2006-01"`
	Amount    int64  `json:"amount" validate:"required,min=1"`
	DueDate   string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

func (nf *NewFee) Validate(validate *validator.Validate) error {
	nf.Month = core.CleanString(nf.Month)
	return validate.Struct(nf)
}

type NewPayment struct {
	Amount    int64  `json:"amount" validate:"required,min=1"`
	Method    string `json:"method" validate:"required,oneof=cash upi card transfer"`
	Reference string `json:"reference"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Reference = core.CleanString(np.Reference)
	return validate.Struct(np)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Month     string `query:"month"`
	Status    string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Month = core.CleanString(qf.Month)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
