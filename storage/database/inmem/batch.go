package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shikshahq/shiksha/core/batch"
)

type batchRepository struct {
	db          *batchTable
	enrollments *enrollmentTable
}

var _ batch.Repository = (*batchRepository)(nil)

func NewBatchRepository(db *DB) *batchRepository {
	return &batchRepository{db: db.batches, enrollments: db.enrollments}
}

func (repo *batchRepository) query() []batch.Batch {
	batches := make([]batch.Batch, 0, len(repo.db.table))
	for _, b := range repo.db.table {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].CreatedAt.After(batches[j].CreatedAt) })
	return batches
}

func (repo *batchRepository) CreateBatch(_ context.Context, b batch.Batch) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	b.ID = uuid.NewString()
	repo.db.table[b.ID] = &b
	return b, nil
}

func (repo *batchRepository) GetBatchByID(_ context.Context, id string) (batch.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if b, ok := repo.db.table[id]; ok {
		return *b, nil
	}
	return batch.Batch{}, batch.ErrNotFound
}

func (repo *batchRepository) FilterBatches(_ context.Context, filter batch.QueryFilter) ([]batch.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var batches []batch.Batch
	for _, b := range repo.query() {
		if matchesBatchFilter(b, filter) {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

func matchesBatchFilter(b batch.Batch, filter batch.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(b.Name), search) &&
			!strings.Contains(strings.ToLower(b.Subject), search) {
			return false
		}
	}
	if filter.Subject != "" && b.Subject != filter.Subject {
		return false
	}
	if filter.TeacherID != "" && b.TeacherID != filter.TeacherID {
		return false
	}
	return true
}

func (repo *batchRepository) UpdateBatch(_ context.Context, b batch.Batch) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[b.ID]; !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	repo.db.table[b.ID] = &b
	return b, nil
}

func (repo *batchRepository) DeleteBatchesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.enrollments.mutex.Lock()
	defer repo.enrollments.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		delete(repo.enrollments.table, id)
	}
	return nil
}

func (repo *batchRepository) EnrollStudent(_ context.Context, batchID, studentID string) error {
	repo.enrollments.mutex.Lock()
	defer repo.enrollments.mutex.Unlock()

	for _, id := range repo.enrollments.table[batchID] {
		if id == studentID {
			return batch.ErrAlreadyEnrolled
		}
	}
	repo.enrollments.table[batchID] = append(repo.enrollments.table[batchID], studentID)
	return nil
}

func (repo *batchRepository) WithdrawStudent(_ context.Context, batchID, studentID string) error {
	repo.enrollments.mutex.Lock()
	defer repo.enrollments.mutex.Unlock()

	ids := repo.enrollments.table[batchID]
	for i, id := range ids {
		if id == studentID {
			repo.enrollments.table[batchID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (repo *batchRepository) CountEnrolled(_ context.Context, batchID string) (int, error) {
	repo.enrollments.mutex.RLock()
	defer repo.enrollments.mutex.RUnlock()
	return len(repo.enrollments.table[batchID]), nil
}

func (repo *batchRepository) QueryEnrolledStudentIDs(_ context.Context, batchID string) ([]string, error) {
	repo.enrollments.mutex.RLock()
	defer repo.enrollments.mutex.RUnlock()

	ids := repo.enrollments.table[batchID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func (repo *batchRepository) QueryBatchesByStudent(_ context.Context, studentID string) ([]batch.Batch, error) {
	repo.enrollments.mutex.RLock()
	defer repo.enrollments.mutex.RUnlock()
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var batches []batch.Batch
	for batchID, studentIDs := range repo.enrollments.table {
		for _, id := range studentIDs {
			if id == studentID {
				if b, ok := repo.db.table[batchID]; ok {
					batches = append(batches, *b)
				}
				break
			}
		}
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].CreatedAt.After(batches[j].CreatedAt) })
	return batches, nil
}
