package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("attendance record not found")

const dateLayout = "2006-01-02"

type (
	Repository interface {
		// UpsertRecords replaces any existing marks for the (batch, date,
		// student) keys it is given; marking a session twice is an update.
		UpsertRecords(ctx context.Context, recs []Record) error
		QueryByBatchDate(ctx context.Context, batchID string, date time.Time) ([]Record, error)
		QueryByStudent(ctx context.Context, studentID string, from, to time.Time) ([]Record, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// MarkSession records attendance for one batch session on behalf of markedBy.
func (svc *Service) MarkSession(ctx context.Context, ms MarkSession, markedBy string) ([]Record, error) {
	date, err := time.ParseInLocation(dateLayout, ms.Date, time.UTC)
	if err != nil {
		return nil, errors.Wrap(err, "parsing session date")
	}

	now := time.Now().UTC()
	recs := make([]Record, 0, len(ms.Marks))
	for _, m := range ms.Marks {
		recs = append(recs, Record{
			BatchID:   ms.BatchID,
			StudentID: m.StudentID,
			Date:      date,
			Status:    m.Status,
			MarkedBy:  markedBy,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err = svc.repo.UpsertRecords(ctx, recs); err != nil {
		return nil, errors.Wrap(err, "upserting attendance records")
	}
	return recs, nil
}

// SessionSheet returns the marks of one batch session.
func (svc *Service) SessionSheet(ctx context.Context, batchID, dateStr string) ([]Record, error) {
	date, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, errors.Wrap(err, "parsing session date")
	}
	return svc.repo.QueryByBatchDate(ctx, batchID, date)
}

// StudentHistory returns a student's own records within [from, to].
// Zero bounds mean unbounded.
func (svc *Service) StudentHistory(ctx context.Context, studentID string, from, to time.Time) ([]Record, error) {
	return svc.repo.QueryByStudent(ctx, studentID, from, to)
}
