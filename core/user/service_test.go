package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/user"
	emailsvc "github.com/shikshahq/shiksha/services/email"
	inmemdb "github.com/shikshahq/shiksha/storage/database/inmem"
	testutil "github.com/shikshahq/shiksha/tests"
)

func newValidate() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestService(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()

	conf := testutil.NewConfig(t)
	core.ParseEmailTemplates(conf, nopLogger{})

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf)
	return svc, repo
}

func Test_Service_Authenticate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	active := testutil.CreateUser(t, repo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)
	testutil.CreateUser(t, repo, "John Doe", "john@test.cd", "LousyS3cret", user.RoleStudent, false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "ghost@test.cd", pwd: "LousyS3cret", wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: "jane@test.cd", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "deactivated account", email: "john@test.cd", pwd: "LousyS3cret", wantErr: user.ErrAccountDeactivated},
		// the active check comes first: a deactivated account never reveals
		// whether the password was right
		{name: "deactivated account, wrong password", email: "john@test.cd", pwd: "nope", wantErr: user.ErrAccountDeactivated},
		{name: "email is case-insensitive", email: "JANE@Test.CD", pwd: "LousyS3cret"},
		{name: "ok", email: "jane@test.cd", pwd: "LousyS3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() failed: %v", err)
			}
			assert.Equal(t, active.ID, usr.ID)
			assert.False(t, usr.LastLogin.IsZero(), "LastLogin must be stamped on success")
		})
	}
}

func Test_Service_Create(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	nu := user.NewUser{
		Name:            "Jane Doe",
		Email:           "jane@test.cd",
		Password:        "LousyS3cret",
		PasswordConfirm: "LousyS3cret",
		Role:            user.RoleStudent,
	}

	usr, err := svc.Create(ctx, nu, false)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.NotEmpty(t, usr.ID)
	assert.False(t, usr.IsActive, "self-registered accounts start inactive")
	assert.True(t, usr.CheckPassword("LousyS3cret"))
	assert.False(t, usr.CheckPassword("nope"))

	nu.Email = "admin@test.cd"
	usr, err = svc.Create(ctx, nu, true)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.True(t, usr.IsActive)
}

func Test_Service_SetActive(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	usr := testutil.CreateUser(t, repo, "John Doe", "john@test.cd", "LousyS3cret", user.RoleStudent, false)

	usr, err := svc.SetActive(ctx, usr.ID, true)
	if err != nil {
		t.Fatalf("SetActive() failed: %v", err)
	}
	assert.True(t, usr.IsActive)

	if assert.Len(t, emailsvc.SentMessages, 1) {
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "account-approved", msg.TemplateName)
		assert.Equal(t, "john@test.cd", msg.To[0].Address)
	}

	// deactivation is silent
	emailsvc.ClearSentMessages()
	usr, err = svc.SetActive(ctx, usr.ID, false)
	if err != nil {
		t.Fatalf("SetActive() failed: %v", err)
	}
	assert.False(t, usr.IsActive)
	assert.Empty(t, emailsvc.SentMessages)
}

func Test_Service_PasswordReset(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	usr := testutil.CreateUser(t, repo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)

	if err := svc.RequestPasswordReset(ctx, "jane@test.cd"); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if assert.Len(t, emailsvc.SentMessages, 1) {
		assert.Equal(t, "password-reset", emailsvc.SentMessages[0].TemplateName)
	}

	// unknown and deactivated accounts bubble up ErrNotFound
	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "ghost@test.cd"))
	inactive := testutil.CreateUser(t, repo, "John Doe", "john@test.cd", "LousyS3cret", user.RoleStudent, false)
	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, inactive.Email))

	// complete the reset with a generated UID/token pair
	err := svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           user.MakeToken(usr),
		Password:        "NewS3cret",
		PasswordConfirm: "NewS3cret",
	})
	if err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}
	usr, err = repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	assert.True(t, usr.CheckPassword("NewS3cret"))
	assert.False(t, usr.CheckPassword("LousyS3cret"))

	// a used token no longer verifies
	var vErr *core.ValidationError
	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           "HE4TS-sigsig-sig",
		Password:        "AnotherS3cret",
		PasswordConfirm: "AnotherS3cret",
	})
	assert.ErrorAs(t, err, &vErr)
}

func Test_Service_Update_checksUniqueness(t *testing.T) {
	svc, repo := newTestService(t)

	testutil.CreateUser(t, repo, "Jane Doe", "jane@test.cd", "LousyS3cret", user.RoleTeacher, true)
	john := testutil.CreateUser(t, repo, "John Doe", "john@test.cd", "LousyS3cret", user.RoleStudent, true)

	validate := newValidate()

	// reusing another account's email is a validation error
	uu := user.UpdateUser{Email: "jane@test.cd"}
	err := uu.Validate(john, validate, svc)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// keeping one's own email is fine
	uu = user.UpdateUser{Email: "john@test.cd"}
	assert.NoError(t, uu.Validate(john, validate, svc))
}
