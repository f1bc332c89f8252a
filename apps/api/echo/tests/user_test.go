package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/shikshahq/shiksha/apps/api/echo"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/user"
	emailsvc "github.com/shikshahq/shiksha/services/email"
	testutil "github.com/shikshahq/shiksha/tests"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)
	testutil.CreateUser(t, usrRepo, "John Doe", "john@test.cd", "LousyS3cret", user.RoleStudent, false)

	loginBody := func(email, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}
	reqMsg := "this field is required"

	tests := []httpTest{
		{
			name: "required fields", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Email: reqMsg, Password: reqMsg}),
		},
		{
			name: "invalid email", body: loginBody("nope", "LousyS3cret"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", body: loginBody("ghost@test.cd", "LousyS3cret"), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Message: "invalid credentials"}),
		},
		{
			name: "wrong password", body: loginBody("jane@test.cd", "nope"), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Message: "invalid credentials"}),
		},
		{
			// the account state leaks before the password is ever checked;
			// a deactivated owner learns why, an attacker learns nothing new
			name: "deactivated account", body: loginBody("john@test.cd", "whatever"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			for _, ck := range rec.Result().Cookies() {
				if ck.Name == echoapi.AuthCookieName && ck.Value != "" {
					t.Error("failed login must not set a session cookie")
				}
			}
		})
	}
}

func Test_authApi_login_setsSessionCookie(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	body := marchallObj(t, echoapi.LoginRequest{Email: "jane@test.cd", Password: "LousyS3cret"})
	req, rec := newRequest(http.MethodPost, "/api/auth/login", body)
	app.ServeHTTP(rec, req)

	wantData := marchallObj(t, echoapi.LoginResponse{
		User: echoapi.UserInfo{ID: usr.ID, Email: usr.Email, Role: usr.Role, Name: usr.Name},
	})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantData}, rec)

	var ck *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == echoapi.AuthCookieName {
			ck = c
		}
	}
	if ck == nil {
		t.Fatal("session cookie not set")
	}
	assert.NotEmpty(t, ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 7*24*60*60, ck.MaxAge)
	assert.False(t, ck.Secure, "cookies stay plain-HTTP in test mode")

	// the cookie is a working session
	req, rec = newAuthRequest(http.MethodGet, "/api/auth/me", ck.Value)
	app.ServeHTTP(rec, req)
	wantMe := marchallObj(t, echoapi.UserInfo{ID: usr.ID, Email: usr.Email, Role: usr.Role, Name: usr.Name})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantMe}, rec)
}

func Test_authApi_logout(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/logout", getToken(t, usr))
	app.ServeHTTP(rec, req)

	wantData := marchallObj(t, echoapi.SuccessResponse{Success: "Logged out."})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantData}, rec)

	var ck *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == echoapi.AuthCookieName {
			ck = c
		}
	}
	if ck == nil {
		t.Fatal("logout must rewrite the session cookie")
	}
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0, "cookie must be expired")
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{
			name: "ok", token: getToken(t, usr), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.UserInfo{ID: usr.ID, Email: usr.Email, Role: usr.Role, Name: usr.Name}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_signup(t *testing.T) {
	app := setup(t)

	testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	signupBody := func(name, email, pwd string) []byte {
		return marchallObj(t, echoapi.SignupRequest{
			Name:            name,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			GuardianName:    "Guardian " + name,
			Phone:           "5550100100",
			Grade:           "10",
		})
	}
	reqMsg := "this field is required"

	tests := []httpTest{
		{
			name: "required fields", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":             reqMsg,
				"email":            reqMsg,
				"password":         reqMsg,
				"password_confirm": reqMsg,
				"guardian_name":    reqMsg,
				"phone":            reqMsg,
				"grade":            reqMsg,
			}),
		},
		{
			name: "weak password", body: signupBody("Ravi Kumar", "ravi@test.cd", "password"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			}),
		},
		{
			name: "email taken", body: signupBody("Ravi Kumar", "jane@test.cd", "Str0ng!Pass"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "ok", body: signupBody("Ravi Kumar", "ravi@test.cd", "Str0ng!Pass"), wantCode: http.StatusCreated,
			wantData: marchallObj(t, echoapi.SuccessResponse{
				Success: "Admission submitted. You will be able to log in once it is approved.",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/signup", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the credential exists but stays locked until the admission is approved
	usr, err := usrSvc.GetByEmail(context.Background(), "ravi@test.cd")
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	assert.False(t, usr.IsActive)

	st, err := stdSvc.GetByUserID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetByUserID() failed: %v", err)
	}
	assert.Equal(t, student.StatusPending, st.Status)

	body := marchallObj(t, echoapi.LoginRequest{Email: "ravi@test.cd", Password: "Str0ng!Pass"})
	req, rec := newRequest(http.MethodPost, "/api/auth/login", body)
	app.ServeHTTP(rec, req)
	wantData := marchallObj(t, httpErr{Message: "account deactivated"})
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: wantData}, rec)
}

func Test_authApi_passwordReset(t *testing.T) {
	app := setup(t)
	emailsvc.ClearSentMessages()

	testutil.CreateUser(t, usrRepo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	wantData := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	// known and unknown emails are indistinguishable from outside
	for _, email := range []string{"jane@test.cd", "ghost@test.cd"} {
		body := marchallObj(t, echoapi.PasswordResetRequest{Email: email})
		req, rec := newRequest(http.MethodPost, "/api/auth/password-reset", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantData}, rec)
	}

	// but only the real account got a message
	if assert.Len(t, emailsvc.SentMessages, 1) {
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "password-reset", msg.TemplateName)
		assert.Equal(t, "jane@test.cd", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, "/auth/password-reset/")
	}
}
