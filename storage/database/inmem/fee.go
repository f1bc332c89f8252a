package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/shikshahq/shiksha/core/fee"
)

type feeRepository struct {
	db       *feeTable
	payments *paymentTable
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) *feeRepository {
	return &feeRepository{db: db.fees, payments: db.payments}
}

func (repo *feeRepository) CreateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentID == f.StudentID && existing.Month == f.Month {
			return fee.Fee{}, fee.ErrDuplicate
		}
	}
	f.ID = uuid.NewString()
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) GetFeeByID(_ context.Context, id string) (fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f, ok := repo.db.table[id]; ok {
		return *f, nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) FilterFees(_ context.Context, filter fee.QueryFilter) ([]fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var fees []fee.Fee
	for _, f := range repo.db.table {
		if filter.StudentID != "" && f.StudentID != filter.StudentID {
			continue
		}
		if filter.Month != "" && f.Month != filter.Month {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		fees = append(fees, *f)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Month > fees[j].Month })
	return fees, nil
}

func (repo *feeRepository) UpdateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[f.ID]; !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) AddPayment(_ context.Context, p fee.Payment, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.payments.mutex.Lock()
	defer repo.payments.mutex.Unlock()

	if _, ok := repo.db.table[f.ID]; !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	p.ID = uuid.NewString()
	repo.payments.table[f.ID] = append(repo.payments.table[f.ID], p)
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) QueryPayments(_ context.Context, feeID string) ([]fee.Payment, error) {
	repo.payments.mutex.RLock()
	defer repo.payments.mutex.RUnlock()

	payments := repo.payments.table[feeID]
	out := make([]fee.Payment, len(payments))
	copy(out, payments)
	return out, nil
}
