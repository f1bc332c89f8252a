package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/user"
)

// NewConfig returns a test-mode config with a fixed signing secret.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	t.Setenv("ENV", "TEST")
	conf, err := core.NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	userID, name, grade, status string,
) student.Student {
	t.Helper()

	now := time.Now().UTC()
	st, err := repo.CreateStudent(context.Background(), student.Student{
		UserID:       userID,
		Name:         name,
		GuardianName: name + " Sr.",
		Phone:        "5550100100",
		Grade:        grade,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}
