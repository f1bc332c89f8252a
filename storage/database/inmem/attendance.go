package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shikshahq/shiksha/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func recordKey(batchID, studentID string, date time.Time) string {
	return batchID + "|" + studentID + "|" + date.Format("2006-01-02")
}

func (repo *attendanceRepository) UpsertRecords(_ context.Context, recs []attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range recs {
		key := recordKey(rec.BatchID, rec.StudentID, rec.Date)
		if existing, ok := repo.db.table[key]; ok {
			existing.Status = rec.Status
			existing.MarkedBy = rec.MarkedBy
			existing.UpdatedAt = rec.UpdatedAt
			continue
		}
		rec := rec
		rec.ID = uuid.NewString()
		repo.db.table[key] = &rec
	}
	return nil
}

func (repo *attendanceRepository) QueryByBatchDate(_ context.Context, batchID string, date time.Time) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if rec.BatchID == batchID && rec.Date.Equal(date) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].StudentID < recs[j].StudentID })
	return recs, nil
}

func (repo *attendanceRepository) QueryByStudent(_ context.Context, studentID string, from, to time.Time) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if rec.StudentID != studentID {
			continue
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}
