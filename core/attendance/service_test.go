package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shikshahq/shiksha/core/attendance"
	inmemdb "github.com/shikshahq/shiksha/storage/database/inmem"
)

func newTestService(t *testing.T) *attendance.Service {
	t.Helper()
	return attendance.NewService(inmemdb.NewAttendanceRepository(inmemdb.NewDB()))
}

func Test_Service_MarkSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ms := attendance.MarkSession{
		BatchID: "b1",
		Date:    "2026-04-06",
		Marks: []attendance.Mark{
			{StudentID: "s1", Status: attendance.StatusPresent},
			{StudentID: "s2", Status: attendance.StatusAbsent},
		},
	}

	recs, err := svc.MarkSession(ctx, ms, "teacher-1")
	if err != nil {
		t.Fatalf("MarkSession() failed: %v", err)
	}
	assert.Len(t, recs, 2)
	assert.Equal(t, "teacher-1", recs[0].MarkedBy)

	// marking the same session again corrects, not duplicates
	ms.Marks = []attendance.Mark{{StudentID: "s2", Status: attendance.StatusLate}}
	if _, err = svc.MarkSession(ctx, ms, "teacher-2"); err != nil {
		t.Fatalf("MarkSession() failed: %v", err)
	}

	sheet, err := svc.SessionSheet(ctx, "b1", "2026-04-06")
	if err != nil {
		t.Fatalf("SessionSheet() failed: %v", err)
	}
	if assert.Len(t, sheet, 2) {
		assert.Equal(t, attendance.StatusPresent, sheet[0].Status) // s1
		assert.Equal(t, attendance.StatusLate, sheet[1].Status)    // s2
		assert.Equal(t, "teacher-2", sheet[1].MarkedBy)
	}

	// malformed date
	ms.Date = "06/04/2026"
	_, err = svc.MarkSession(ctx, ms, "teacher-1")
	assert.Error(t, err)
	_, err = svc.SessionSheet(ctx, "b1", "06/04/2026")
	assert.Error(t, err)
}

func Test_Service_StudentHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, date := range []string{"2026-04-06", "2026-04-08", "2026-04-13"} {
		_, err := svc.MarkSession(ctx, attendance.MarkSession{
			BatchID: "b1",
			Date:    date,
			Marks:   []attendance.Mark{{StudentID: "s1", Status: attendance.StatusPresent}},
		}, "teacher-1")
		if err != nil {
			t.Fatalf("MarkSession() failed: %v", err)
		}
	}

	// unbounded
	recs, err := svc.StudentHistory(ctx, "s1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentHistory() failed: %v", err)
	}
	assert.Len(t, recs, 3)

	// bounded range keeps only the middle session
	from := time.Date(2026, time.April, 7, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.April, 12, 0, 0, 0, 0, time.UTC)
	recs, err = svc.StudentHistory(ctx, "s1", from, to)
	if err != nil {
		t.Fatalf("StudentHistory() failed: %v", err)
	}
	if assert.Len(t, recs, 1) {
		assert.Equal(t, "2026-04-08", recs[0].Date.Format("2006-01-02"))
	}

	// someone else's records never leak in
	recs, err = svc.StudentHistory(ctx, "s2", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentHistory() failed: %v", err)
	}
	assert.Empty(t, recs)
}
