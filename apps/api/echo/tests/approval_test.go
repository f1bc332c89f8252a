package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/shikshahq/shiksha/apps/api/echo"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/teacherprofile"
	"github.com/shikshahq/shiksha/core/user"
	emailsvc "github.com/shikshahq/shiksha/services/email"
	testutil "github.com/shikshahq/shiksha/tests"
)

func Test_approvalApi_studentAdmission(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "LousyS3cret", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	usr := testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@test.cd", "LousyS3cret", user.RoleStudent, false)
	st, err := stdSvc.Admit(ctx, usr.ID, student.NewStudent{
		Name:         "Ravi Kumar",
		GuardianName: "Suresh Kumar",
		Phone:        "5550100100",
		Grade:        "10",
	})
	if err != nil {
		t.Fatalf("Admit() failed: %v", err)
	}

	// the admission shows up in the review queue
	req, rec := newAuthRequest(http.MethodGet, "/api/approvals", adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), st.ID)

	// non-admin staff never see the queue
	teacher := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)
	req, rec = newAuthRequest(http.MethodGet, "/api/approvals", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

	// approving activates the credential and notifies the student
	req, rec = newAuthRequest(http.MethodPost, "/api/approvals/students/"+st.ID+"/approve", adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	st, err = stdSvc.GetByID(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.Equal(t, student.StatusApproved, st.Status)

	usr, err = usrSvc.GetByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.True(t, usr.IsActive)

	if assert.Len(t, emailsvc.SentMessages, 1) {
		assert.Equal(t, "account-approved", emailsvc.SentMessages[0].TemplateName)
	}

	// the student can log in now
	body := marchallObj(t, echoapi.LoginRequest{Email: "ravi@test.cd", Password: "LousyS3cret"})
	req, rec = newRequest(http.MethodPost, "/api/auth/login", body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// a settled admission cannot be re-reviewed
	req, rec = newAuthRequest(http.MethodPost, "/api/approvals/students/"+st.ID+"/approve", adminToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"status": "admission is not pending"}),
	}, rec)

	// unknown admission
	req, rec = newAuthRequest(http.MethodPost, "/api/approvals/students/nope/approve", adminToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Message: "not found"}),
	}, rec)
}

func Test_approvalApi_teacherApplication(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "LousyS3cret", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, false)
	prof, err := tchSvc.Apply(ctx, usr.ID, teacherprofile.NewProfile{
		Name:     "Jane Doe",
		Phone:    "5550100200",
		Subjects: []string{"Mathematics", "Physics"},
	})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	// rejection leaves the credential locked out
	req, rec := newAuthRequest(http.MethodPost, "/api/approvals/teachers/"+prof.ID+"/reject", adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	prof, err = tchSvc.GetByID(ctx, prof.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.Equal(t, teacherprofile.StatusRejected, prof.Status)

	usr, err = usrSvc.GetByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.False(t, usr.IsActive)

	body := marchallObj(t, echoapi.LoginRequest{Email: "jane@test.cd", Password: "LousyS3cret"})
	req, rec = newRequest(http.MethodPost, "/api/auth/login", body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
