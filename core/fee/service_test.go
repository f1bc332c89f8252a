package fee_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shikshahq/shiksha/core/fee"
	inmemdb "github.com/shikshahq/shiksha/storage/database/inmem"
)

func newTestService(t *testing.T) *fee.Service {
	t.Helper()
	return fee.NewService(inmemdb.NewFeeRepository(inmemdb.NewDB()))
}

func Test_Service_Assess(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	nf := fee.NewFee{StudentID: "s1", Month: "2026-04", Amount: 150000, DueDate: "2026-04-10"}

	f, err := svc.Assess(ctx, nf)
	if err != nil {
		t.Fatalf("Assess() failed: %v", err)
	}
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, fee.StatusDue, f.Status)
	assert.Equal(t, int64(150000), f.Balance())
	assert.Equal(t, "2026-04-10", f.DueDate.Format("2006-01-02"))

	// one fee per student per month
	_, err = svc.Assess(ctx, nf)
	assert.Equal(t, fee.ErrDuplicate, err)

	// same month, different student is fine
	nf.StudentID = "s2"
	_, err = svc.Assess(ctx, nf)
	assert.NoError(t, err)

	// malformed due date
	nf.StudentID = "s3"
	nf.DueDate = "10/04/2026"
	_, err = svc.Assess(ctx, nf)
	assert.Error(t, err)
}

func Test_Service_RecordPayment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	f, err := svc.Assess(ctx, fee.NewFee{StudentID: "s1", Month: "2026-04", Amount: 150000, DueDate: "2026-04-10"})
	if err != nil {
		t.Fatalf("Assess() failed: %v", err)
	}

	// partial payment
	f, err = svc.RecordPayment(ctx, f.ID, fee.NewPayment{Amount: 100000, Method: "upi", Reference: "UPI-123"})
	if err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}
	assert.Equal(t, fee.StatusPartial, f.Status)
	assert.Equal(t, int64(50000), f.Balance())

	// overpayment is rejected and the ledger stays put
	_, err = svc.RecordPayment(ctx, f.ID, fee.NewPayment{Amount: 60000, Method: "cash"})
	assert.Equal(t, fee.ErrOverpayment, err)
	f, err = svc.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.Equal(t, int64(100000), f.Paid)

	// settling the balance closes the fee
	f, err = svc.RecordPayment(ctx, f.ID, fee.NewPayment{Amount: 50000, Method: "cash"})
	if err != nil {
		t.Fatalf("RecordPayment() failed: %v", err)
	}
	assert.Equal(t, fee.StatusPaid, f.Status)
	assert.Equal(t, int64(0), f.Balance())

	// a paid fee accepts nothing more
	_, err = svc.RecordPayment(ctx, f.ID, fee.NewPayment{Amount: 1, Method: "cash"})
	assert.Equal(t, fee.ErrOverpayment, err)

	payments, err := svc.Payments(ctx, f.ID)
	if err != nil {
		t.Fatalf("Payments() failed: %v", err)
	}
	if assert.Len(t, payments, 2) {
		assert.Equal(t, "UPI-123", payments[0].Reference)
	}

	// unknown fee
	_, err = svc.RecordPayment(ctx, "nope", fee.NewPayment{Amount: 1, Method: "cash"})
	assert.Equal(t, fee.ErrNotFound, err)
}
