package inmemdb

import (
	"sync"

	"github.com/shikshahq/shiksha/core/attendance"
	"github.com/shikshahq/shiksha/core/batch"
	"github.com/shikshahq/shiksha/core/fee"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/teacherprofile"
	"github.com/shikshahq/shiksha/core/user"
)

// DB is an in-memory store used by tests and local hacking. No persistence,
// no query planner, just maps behind one mutex per table.
type DB struct {
	users       *userTable
	students    *studentTable
	teachers    *teacherTable
	batches     *batchTable
	enrollments *enrollmentTable
	attendance  *attendanceTable
	fees        *feeTable
	payments    *paymentTable
}

func NewDB() *DB {
	return &DB{
		users:       &userTable{table: make(map[string]*user.User)},
		students:    &studentTable{table: make(map[string]*student.Student)},
		teachers:    &teacherTable{table: make(map[string]*teacherprofile.Profile)},
		batches:     &batchTable{table: make(map[string]*batch.Batch)},
		enrollments: &enrollmentTable{table: make(map[string][]string)},
		attendance:  &attendanceTable{table: make(map[string]*attendance.Record)},
		fees:        &feeTable{table: make(map[string]*fee.Fee)},
		payments:    &paymentTable{table: make(map[string][]fee.Payment)},
	}
}

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}
	teacherTable struct {
		mutex sync.RWMutex
		table map[string]*teacherprofile.Profile
	}
	batchTable struct {
		mutex sync.RWMutex
		table map[string]*batch.Batch
	}
	// enrollmentTable maps batchID -> enrolled studentIDs, in order.
	enrollmentTable struct {
		mutex sync.RWMutex
		table map[string][]string
	}
	// attendanceTable keys records by batchID|studentID|date.
	attendanceTable struct {
		mutex sync.RWMutex
		table map[string]*attendance.Record
	}
	feeTable struct {
		mutex sync.RWMutex
		table map[string]*fee.Fee
	}
	// paymentTable maps feeID -> payments, in order.
	paymentTable struct {
		mutex sync.RWMutex
		table map[string][]fee.Payment
	}
)
