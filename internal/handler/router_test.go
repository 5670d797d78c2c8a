package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/config"
)

var errNoRows = sql.ErrNoRows

type routerUserStore struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newRouterUserStore(users ...*models.User) *routerUserStore {
	s := &routerUserStore{users: map[string]*models.User{}, tokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *routerUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errNoRows
}

func (s *routerUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errNoRows
}

func (s *routerUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(context.Background(), email)
	return err == nil, nil
}

func (s *routerUserStore) Create(_ context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *routerUserStore) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (s *routerUserStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *routerUserStore) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := s.tokens[token]; ok {
		return t, nil
	}
	return nil, errNoRows
}

func (s *routerUserStore) RevokeRefreshToken(context.Context, string, time.Time) error { return nil }
func (s *routerUserStore) RevokeUserRefreshTokens(context.Context, string) error       { return nil }
func (s *routerUserStore) CreateAuditLog(context.Context, *models.AuditLog) error      { return nil }

func (s *routerUserStore) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *routerUserStore) ListStudents(context.Context, models.UserFilter) ([]models.StudentDetail, int, error) {
	return []models.StudentDetail{}, 0, nil
}

func (s *routerUserStore) SetApproved(_ context.Context, id string, approved bool) error {
	if u, ok := s.users[id]; ok {
		u.Approved = approved
		return nil
	}
	return errNoRows
}

func (s *routerUserStore) SetBlocked(_ context.Context, id string, blocked bool) error {
	if u, ok := s.users[id]; ok {
		u.Blocked = blocked
		return nil
	}
	return errNoRows
}

func (s *routerUserStore) Delete(_ context.Context, id string) error {
	delete(s.users, id)
	return nil
}

func (s *routerUserStore) DeleteStudents(context.Context) (int64, error) { return 2, nil }

type routerPaymentStore struct {
	payments map[string]*models.PaymentDetail
}

func (s *routerPaymentStore) List(context.Context, models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	return []models.PaymentDetail{}, 0, nil
}

func (s *routerPaymentStore) FindByID(_ context.Context, id string) (*models.PaymentDetail, error) {
	if p, ok := s.payments[id]; ok {
		return p, nil
	}
	return nil, errNoRows
}

func (s *routerPaymentStore) SetStatus(_ context.Context, id string, status models.PaymentStatus, reason string) error {
	if p, ok := s.payments[id]; ok {
		p.Status = status
		p.RejectionReason = reason
		return nil
	}
	return errNoRows
}

type routerSessionStore struct{}

func (routerSessionStore) List(context.Context, models.SessionFilter) ([]models.SessionDetail, int, error) {
	return []models.SessionDetail{}, 0, nil
}
func (routerSessionStore) FindByID(context.Context, string) (*models.SessionDetail, error) {
	return nil, errNoRows
}
func (routerSessionStore) Create(context.Context, *models.Session) error { return nil }
func (routerSessionStore) Update(context.Context, *models.Session) error { return nil }
func (routerSessionStore) Delete(context.Context, string) error          { return nil }
func (routerSessionStore) DeleteAll(context.Context) (int64, error)      { return 0, nil }

type routerCourseStore struct{}

func (routerCourseStore) List(context.Context, models.CourseFilter) ([]models.CourseDetail, int, error) {
	return []models.CourseDetail{}, 0, nil
}
func (routerCourseStore) FindByID(context.Context, string) (*models.CourseDetail, error) {
	return nil, errNoRows
}
func (routerCourseStore) SetApproval(context.Context, string, models.CourseApproval) error {
	return nil
}
func (routerCourseStore) Delete(context.Context, string) error { return nil }

type routerPayoutStore struct {
	settings map[string]*models.PayoutSettingDetail
}

func (s *routerPayoutStore) List(context.Context, models.PayoutSettingFilter) ([]models.PayoutSettingDetail, int, error) {
	out := make([]models.PayoutSettingDetail, 0, len(s.settings))
	for _, p := range s.settings {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *routerPayoutStore) FindByID(_ context.Context, id string) (*models.PayoutSettingDetail, error) {
	if p, ok := s.settings[id]; ok {
		return p, nil
	}
	return nil, errNoRows
}

func (s *routerPayoutStore) Update(_ context.Context, setting *models.PayoutSetting) error {
	if p, ok := s.settings[setting.ID]; ok {
		p.PayoutSetting = *setting
		return nil
	}
	return errNoRows
}

func (s *routerPayoutStore) Delete(_ context.Context, id string) error {
	if _, ok := s.settings[id]; !ok {
		return errNoRows
	}
	delete(s.settings, id)
	return nil
}

type routerEnrollmentStore struct{}

func (routerEnrollmentStore) List(context.Context, models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return []models.EnrollmentDetail{}, 0, nil
}
func (routerEnrollmentStore) FindByID(context.Context, string) (*models.EnrollmentDetail, error) {
	return nil, errNoRows
}
func (routerEnrollmentStore) SetStatus(context.Context, string, models.EnrollmentStatus) error {
	return nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		APIPrefix: "/api/v1",
		Aliases: config.AliasConfig{
			StudentApprovalEnabled: true,
			SessionDataEnabled:     true,
		},
		BulkClear: config.BulkClearConfig{Enabled: true},
	}
}

func buildTestRouter(t *testing.T, cfg *config.Config, users *routerUserStore, payments *routerPaymentStore, payouts *routerPayoutStore) (*gin.Engine, *service.AuthService) {
	if payouts == nil {
		payouts = &routerPayoutStore{settings: map[string]*models.PayoutSettingDetail{}}
	}
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := service.NewAuthService(users, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "router-test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "tutorhub-test",
	})
	metricsSvc := service.NewMetricsService()
	userSvc := service.NewUserService(users, nil, nil, nil)
	courseSvc := service.NewCourseService(routerCourseStore{}, users, nil, nil, nil)
	paymentSvc := service.NewPaymentService(payments, users, nil, nil, nil)
	enrollmentSvc := service.NewEnrollmentService(routerEnrollmentStore{}, users, nil, nil)
	payoutSvc := service.NewPayoutService(payouts, users, nil, nil, nil)
	sessionSvc := service.NewSessionService(routerSessionStore{}, users, nil, nil, nil)

	r := gin.New()
	RegisterRoutes(r, RouterDeps{
		Config:         cfg,
		Auth:           NewAuthHandler(authSvc),
		Admin:          NewAdminHandler(userSvc, metricsSvc),
		Courses:        NewCourseHandler(courseSvc, metricsSvc),
		Payments:       NewPaymentHandler(paymentSvc, nil, metricsSvc),
		Enrollments:    NewEnrollmentHandler(enrollmentSvc, metricsSvc),
		Payouts:        NewPayoutHandler(payoutSvc, metricsSvc),
		Sessions:       NewSessionHandler(sessionSvc, metricsSvc),
		Reports:        NewReportHandler(nil),
		Metrics:        NewMetricsHandler(metricsSvc),
		AuthService:    authSvc,
		MetricsService: metricsSvc,
		Audits:         users,
	})
	return r, authSvc
}

func loginToken(t *testing.T, authSvc *service.AuthService, email string) string {
	t.Helper()
	resp, err := authSvc.Login(context.Background(), models.LoginRequest{
		Email:    email,
		Password: "sekret123",
	})
	require.NoError(t, err)
	return resp.AccessToken
}

func performRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func routerTestUsers(t *testing.T) (*models.User, *models.User, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("sekret123"), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &models.User{
		ID: "admin-1", Name: "Root Admin", Email: "admin@tutorhub.io",
		Role: models.RoleAdmin, PasswordHash: string(hash), Approved: true,
	}
	tutor := &models.User{
		ID: "tutor-1", Name: "Elena Brandt", Email: "elena@tutorhub.io",
		Role: models.RoleTutor, PasswordHash: string(hash), Approved: true,
	}
	student := &models.User{
		ID: "student-1", Name: "Jon Park", Email: "jon@student.io",
		Role: models.RoleStudent, PasswordHash: string(hash),
	}
	return admin, tutor, student
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	admin, tutor, student := routerTestUsers(t)
	users := newRouterUserStore(admin, tutor, student)
	r, authSvc := buildTestRouter(t, testRouterConfig(), users, &routerPaymentStore{payments: map[string]*models.PaymentDetail{}}, nil)

	t.Run("no token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/students", nil)
		resp := performRequest(r, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("non-admin token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/students", nil)
		req.Header.Set("Authorization", "Bearer "+loginToken(t, authSvc, "elena@tutorhub.io"))
		resp := performRequest(r, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("admin token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/students", nil)
		req.Header.Set("Authorization", "Bearer "+loginToken(t, authSvc, "admin@tutorhub.io"))
		resp := performRequest(r, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestStudentApprovalAliases(t *testing.T) {
	admin, tutor, student := routerTestUsers(t)
	users := newRouterUserStore(admin, tutor, student)
	r, authSvc := buildTestRouter(t, testRouterConfig(), users, &routerPaymentStore{payments: map[string]*models.PaymentDetail{}}, nil)
	token := loginToken(t, authSvc, "admin@tutorhub.io")

	paths := []string{
		"/api/v1/admin/approve-student/student-1",
		"/api/v1/admin/students/approve/student-1",
		"/api/v1/admin/approve-user/student-1",
	}
	for _, path := range paths {
		req, _ := http.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := performRequest(r, req)
		require.Equal(t, http.StatusOK, resp.Code, path)
	}
	require.True(t, users.users["student-1"].Approved)
}

func TestAliasesDisabledReturn404(t *testing.T) {
	admin, tutor, student := routerTestUsers(t)
	users := newRouterUserStore(admin, tutor, student)
	cfg := testRouterConfig()
	cfg.Aliases = config.AliasConfig{}
	cfg.BulkClear = config.BulkClearConfig{}
	r, authSvc := buildTestRouter(t, cfg, users, &routerPaymentStore{payments: map[string]*models.PaymentDetail{}}, nil)
	token := loginToken(t, authSvc, "admin@tutorhub.io")

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/v1/admin/students/approve/student-1"},
		{http.MethodPut, "/api/v1/admin/approve-user/student-1"},
		{http.MethodGet, "/api/v1/admin/session-data"},
		{http.MethodDelete, "/api/v1/admin/students/clear"},
		{http.MethodDelete, "/api/v1/admin/sessions"},
	} {
		req, _ := http.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := performRequest(r, req)
		require.Equal(t, http.StatusNotFound, resp.Code, tc.path)
	}

	// Canonical routes stay reachable.
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/admin/approve-student/student-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestSessionDataAliasMirrorsSessions(t *testing.T) {
	admin, tutor, student := routerTestUsers(t)
	users := newRouterUserStore(admin, tutor, student)
	r, authSvc := buildTestRouter(t, testRouterConfig(), users, &routerPaymentStore{payments: map[string]*models.PaymentDetail{}}, nil)
	token := loginToken(t, authSvc, "admin@tutorhub.io")

	for _, path := range []string{"/api/v1/admin/sessions", "/api/v1/admin/session-data"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := performRequest(r, req)
		require.Equal(t, http.StatusOK, resp.Code, path)
	}
}

func TestPayoutSettingsRoutes(t *testing.T) {
	admin, tutor, student := routerTestUsers(t)
	users := newRouterUserStore(admin, tutor, student)
	payouts := &routerPayoutStore{settings: map[string]*models.PayoutSettingDetail{
		"po-1": {PayoutSetting: models.PayoutSetting{
			ID: "po-1", TutorID: "tutor-1", Method: models.PayoutMethodBankTransfer,
			AccountName: "Elena Brandt", AccountIdentifier: "DE-991234", CommissionPercent: 15,
		}},
	}}
	r, authSvc := buildTestRouter(t, testRouterConfig(), users, &routerPaymentStore{payments: map[string]*models.PaymentDetail{}}, payouts)
	token := loginToken(t, authSvc, "admin@tutorhub.io")

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/payout-settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)

	body := bytes.NewBufferString(`{"method":"paypal","accountIdentifier":"elena@pay.example"}`)
	req, _ = http.NewRequest(http.MethodPut, "/api/v1/admin/payout-settings/po-1", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp = performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, models.PayoutMethodPaypal, payouts.settings["po-1"].Method)
	require.Equal(t, "elena@pay.example", payouts.settings["po-1"].AccountIdentifier)

	req, _ = http.NewRequest(http.MethodDelete, "/api/v1/admin/payout-settings/po-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = performRequest(r, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Empty(t, payouts.settings)
}

func TestPaymentStatusRoute(t *testing.T) {
	admin, tutor, student := routerTestUsers(t)
	users := newRouterUserStore(admin, tutor, student)
	payments := &routerPaymentStore{payments: map[string]*models.PaymentDetail{
		"pay-1": {Payment: models.Payment{ID: "pay-1", Status: models.PaymentStatusPending, Amount: 120, Currency: "USD"}},
	}}
	r, authSvc := buildTestRouter(t, testRouterConfig(), users, payments, nil)
	token := loginToken(t, authSvc, "admin@tutorhub.io")

	body := bytes.NewBufferString(`{"status":"approved"}`)
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/payments/pay-1/status", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, models.PaymentStatusApproved, payments.payments["pay-1"].Status)

	// A second review of the same payment is rejected.
	body = bytes.NewBufferString(`{"status":"rejected","rejectionReason":"duplicate"}`)
	req, _ = http.NewRequest(http.MethodPut, "/api/v1/payments/pay-1/status", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp = performRequest(r, req)
	require.Equal(t, http.StatusConflict, resp.Code)
}
