package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/shikshahq/shiksha/apps/api/echo"
	"github.com/shikshahq/shiksha/core"
	"github.com/shikshahq/shiksha/core/attendance"
	"github.com/shikshahq/shiksha/core/batch"
	"github.com/shikshahq/shiksha/core/fee"
	"github.com/shikshahq/shiksha/core/student"
	"github.com/shikshahq/shiksha/core/teacherprofile"
	"github.com/shikshahq/shiksha/core/user"
	emailsvc "github.com/shikshahq/shiksha/services/email"
	ratelimitsvc "github.com/shikshahq/shiksha/services/ratelimit"
	inmemdb "github.com/shikshahq/shiksha/storage/database/inmem"
	testutil "github.com/shikshahq/shiksha/tests"
)

var (
	conf  *core.Config
	codec *TokenCodec

	usrRepo   user.Repository
	stdRepo   student.Repository
	tchRepo   teacherprofile.Repository
	batchRepo batch.Repository
	feeRepo   fee.Repository

	usrSvc *user.Service
	stdSvc *student.Service
	tchSvc *teacherprofile.Service

	errAuthRequired = httpErr{Message: "authentication required"}
	errForbidden    = httpErr{Message: "permission denied"}
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) Server {
	conf = testutil.NewConfig(t)
	core.ParseEmailTemplates(conf, nopLogger{})

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	stdRepo = inmemdb.NewStudentRepository(db)
	tchRepo = inmemdb.NewTeacherRepository(db)
	batchRepo = inmemdb.NewBatchRepository(db)
	feeRepo = inmemdb.NewFeeRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	stdSvc = student.NewService(stdRepo, usrSvc)
	tchSvc = teacherprofile.NewService(tchRepo, usrSvc)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	codec = NewTokenCodec(conf)

	// set up server
	return NewServer(&Deps{
		Conf:          conf,
		Logger:        nopLogger{},
		UserSvc:       usrSvc,
		StudentSvc:    stdSvc,
		TeacherSvc:    tchSvc,
		BatchSvc:      batch.NewService(batchRepo),
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db)),
		FeeSvc:        fee.NewService(feeRepo),
		RateLimiter:   ratelimitsvc.NewRedisLimiter(conf),
		Validate:      validate,
		Translator:    translator,
	})
}

type httpErr struct {
	Message string `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// newAuthRequest builds a request carrying the session cookie.
func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, _, err := codec.Issue(usr, usr.Name)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
