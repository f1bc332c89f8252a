package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/shikshahq/shiksha/apps/api/echo"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/user"
	testutil "github.com/shikshahq/shiksha/tests"
)

func Test_accessGate_anonymous(t *testing.T) {
	app := setup(t)

	// pages redirect to the login form, carrying the original destination
	pageTests := []struct {
		path         string
		wantLocation string
	}{
		{"/dashboard", "/auth/login?callbackUrl=%2Fdashboard"},
		{"/students/42", "/auth/login?callbackUrl=%2Fstudents%2F42"},
		{"/fees", "/auth/login?callbackUrl=%2Ffees"},
	}
	for _, tt := range pageTests {
		t.Run("page "+tt.path, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}

	// API calls get a bare 401, no redirect
	apiTests := []httpTest{
		{name: "api students", path: "/api/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{name: "api fees", path: "/api/fees", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{name: "api me", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
	}
	for _, tt := range apiTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// public surface stays reachable
	for _, path := range []string{"/", "/auth/login", "/auth/signup"} {
		t.Run("public "+path, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, path)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func Test_accessGate_badTokensAreAnonymous(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	// a token signed against yesterday's clock has already expired
	expConf := *conf
	expConf.SessionExpirationDelta = -time.Hour
	expiredToken, _, err := echoapi.NewTokenCodec(&expConf).Issue(usr, usr.Name)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	valid := getToken(t, usr)

	tokens := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"expired", expiredToken},
	}
	for _, tt := range tokens {
		t.Run(tt.name+" page", func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/dashboard", tt.token)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/auth/login?callbackUrl=%2Fdashboard", rec.Header().Get("Location"))
		})
		t.Run(tt.name+" api", func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/students", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)}, rec)
		})
	}
}

func Test_accessGate_loggedInBouncedOffAuthPages(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)
	token := getToken(t, usr)

	for _, path := range []string{"/auth/login", "/auth/signup"} {
		t.Run(path, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, token)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		})
	}

	// the landing page itself stays public even when logged in
	req, rec := newAuthRequest(http.MethodGet, "/", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_accessGate_rolePolicy(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "LousyS3cret", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)
	stdUsr := testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@test.cd", "LousyS3cret", user.RoleStudent, true)

	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, stdUsr)

	// out-of-policy pages bounce to the dashboard with an error flag
	pageTests := []struct {
		name  string
		path  string
		token string
	}{
		{"student settings page", "/settings", studentToken},
		{"student fees page", "/fees", studentToken},
		{"teacher fees page", "/fees", teacherToken},
		{"teacher settings page", "/settings", teacherToken},
	}
	for _, tt := range pageTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/dashboard?error=unauthorized", rec.Header().Get("Location"))
		})
	}

	// out-of-policy API prefixes are a hard 403
	forbidden := marchallObj(t, errForbidden)
	apiTests := []httpTest{
		{name: "teacher fees api", path: "/api/fees", token: teacherToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "teacher approvals api", path: "/api/approvals", token: teacherToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "teacher users api", path: "/api/users", token: teacherToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "student fees api", path: "/api/fees", token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "student students api", path: "/api/students", token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
	}
	for _, tt := range apiTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// in-policy requests pass
	t.Run("admin settings api", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/settings", adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("teacher students api", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students", teacherToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("admin anywhere", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/fees", adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_accessGate_studentAttendanceCarveOut(t *testing.T) {
	app := setup(t)

	stdUsr := testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@test.cd", "LousyS3cret", user.RoleStudent, true)
	testutil.CreateStudent(t, stdRepo, stdUsr.ID, "Ravi Kumar", "10", student.StatusApproved)
	teacher := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	studentToken := getToken(t, stdUsr)
	forbidden := marchallObj(t, errForbidden)

	// own records only
	t.Run("self allowed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/attendance/self", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)
	})

	blocked := []struct {
		name   string
		method string
		path   string
	}{
		{"mark session", http.MethodPost, "/api/attendance"},
		{"session sheet", http.MethodGet, "/api/attendance"},
		{"post to self", http.MethodPost, "/api/attendance/self"},
	}
	for _, tt := range blocked {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, studentToken, []byte("{}"))
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: forbidden}, rec)
		})
	}

	// staff reach the marking endpoints; an empty body is the handler's
	// problem, not the gate's
	t.Run("teacher mark session", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance", getToken(t, teacher), []byte("{}"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_accessGate_forwardsIdentityHeaders(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	req, rec := newAuthRequest(http.MethodGet, "/api/students", getToken(t, usr))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the gate stamps the verified identity onto the inbound request for
	// everything downstream
	assert.Equal(t, usr.ID, req.Header.Get(echoapi.HeaderUserID))
	assert.Equal(t, user.RoleTeacher, req.Header.Get(echoapi.HeaderUserRole))
	assert.Equal(t, "jane@test.cd", req.Header.Get(echoapi.HeaderUserEmail))
}

func Test_accessGate_selfWithoutProfile(t *testing.T) {
	app := setup(t)

	// an approved credential with no admission record on file
	stdUsr := testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@test.cd", "LousyS3cret", user.RoleStudent, true)

	req, rec := newAuthRequest(http.MethodGet, "/api/attendance/self", getToken(t, stdUsr))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Message: "not found"}),
	}, rec)
}
