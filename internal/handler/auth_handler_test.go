package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/service"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, twoFactorCode string) (*service.TokenPair, *model.User, error) {
	args := m.Called(ctx, email, password, twoFactorCode)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, *model.User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	args := m.Called(ctx, rawToken, newPassword)
	return args.Error(0)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func testUser() *model.User {
	return &model.User{
		ID:              uuid.New(),
		Name:            "Test User",
		Email:           "test@example.com",
		Role:            model.RoleUser,
		IsEmailVerified: true,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	mockService := new(MockAuthService)
	mockService.On("Register", mock.Anything, "Test User", "test@example.com", "password123").
		Return(testUser(), nil)

	h := NewAuthHandler(mockService, false)
	c, rec := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"Test User","email":"test@example.com","password":"password123"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "User registered successfully", body["message"])

	mockService.AssertExpectations(t)
}

func TestAuthHandler_Register_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"name":"Test User","password":"password123"}`},
		{name: "invalid email", body: `{"name":"Test User","email":"nope","password":"password123"}`},
		{name: "short password", body: `{"name":"Test User","email":"test@example.com","password":"123"}`},
		{name: "short name", body: `{"name":"ab","email":"test@example.com","password":"password123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			h := NewAuthHandler(mockService, false)
			c, _ := newTestContext(http.MethodPost, "/auth/register", tt.body)

			err := h.Register(c)

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	mockService := new(MockAuthService)
	mockService.On("Register", mock.Anything, "Test User", "test@example.com", "password123").
		Return(nil, service.ErrUserAlreadyExists)

	h := NewAuthHandler(mockService, false)
	c, _ := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"Test User","email":"test@example.com","password":"password123"}`)

	err := h.Register(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, "User already exists", httpErr.Message)
}

func TestAuthHandler_Login_SetsRefreshCookie(t *testing.T) {
	user := testUser()
	pair := &service.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}

	mockService := new(MockAuthService)
	mockService.On("Login", mock.Anything, "test@example.com", "password123", "").
		Return(pair, user, nil)

	h := NewAuthHandler(mockService, false)
	c, rec := newTestContext(http.MethodPost, "/auth/login",
		`{"email":"test@example.com","password":"password123"}`)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Login Successful", body["message"])
	assert.Equal(t, "access-token", body["accessToken"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "refreshToken", cookie.Name)
	assert.Equal(t, "refresh-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int(7*24*60*60), cookie.MaxAge)
}

func TestAuthHandler_Login_ProductionCookieAttributes(t *testing.T) {
	user := testUser()
	pair := &service.TokenPair{AccessToken: "access-token", RefreshToken: "refresh-token"}

	mockService := new(MockAuthService)
	mockService.On("Login", mock.Anything, "test@example.com", "password123", "").
		Return(pair, user, nil)

	h := NewAuthHandler(mockService, true)
	c, rec := newTestContext(http.MethodPost, "/auth/login",
		`{"email":"test@example.com","password":"password123"}`)

	require.NoError(t, h.Login(c))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name         string
		serviceError error
		expectedCode int
	}{
		{name: "two-factor required", serviceError: service.ErrTwoFactorRequired, expectedCode: http.StatusBadRequest},
		{name: "invalid credentials", serviceError: service.ErrInvalidCredentials, expectedCode: http.StatusForbidden},
		{name: "email not verified", serviceError: service.ErrEmailNotVerified, expectedCode: http.StatusForbidden},
		{name: "oauth-only account", serviceError: service.ErrOAuthOnlyAccount, expectedCode: http.StatusForbidden},
		{name: "invalid two-factor code", serviceError: service.ErrInvalidTwoFactorCode, expectedCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			mockService.On("Login", mock.Anything, "test@example.com", "password123", mock.Anything).
				Return(nil, nil, tt.serviceError)

			h := NewAuthHandler(mockService, false)
			c, _ := newTestContext(http.MethodPost, "/auth/login",
				`{"email":"test@example.com","password":"password123"}`)

			err := h.Login(c)

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.expectedCode, httpErr.Code)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	user := testUser()
	pair := &service.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}

	mockService := new(MockAuthService)
	mockService.On("Refresh", mock.Anything, "old-refresh").Return(pair, user, nil)

	h := NewAuthHandler(mockService, false)
	c, rec := newTestContext(http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: "old-refresh"})

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "new-refresh", cookies[0].Value)
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	mockService := new(MockAuthService)
	h := NewAuthHandler(mockService, false)
	c, _ := newTestContext(http.MethodPost, "/auth/refresh", "")

	err := h.Refresh(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	mockService.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	mockService := new(MockAuthService)
	mockService.On("Refresh", mock.Anything, "stale").Return(nil, nil, service.ErrInvalidRefreshToken)

	h := NewAuthHandler(mockService, false)
	c, _ := newTestContext(http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: "stale"})

	err := h.Refresh(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	mockService := new(MockAuthService)
	h := NewAuthHandler(mockService, false)
	c, rec := newTestContext(http.MethodPost, "/auth/logout", "")

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestAuthHandler_ForgotPassword_ResponseDoesNotLeakAccountExistence(t *testing.T) {
	// Known and unknown emails must produce byte-identical responses.
	responses := make([]string, 0, 2)
	codes := make([]int, 0, 2)

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		mockService := new(MockAuthService)
		mockService.On("ForgotPassword", mock.Anything, email).Return(nil)

		h := NewAuthHandler(mockService, false)
		c, rec := newTestContext(http.MethodPost, "/auth/forgot-password",
			`{"email":"`+email+`"}`)

		require.NoError(t, h.ForgotPassword(c))
		responses = append(responses, rec.Body.String())
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, codes[0], codes[1])
	assert.Equal(t, http.StatusCreated, codes[0])
	assert.Equal(t, responses[0], responses[1])
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	tests := []struct {
		name         string
		serviceError error
		expectedCode int
	}{
		{name: "success", serviceError: nil, expectedCode: http.StatusOK},
		{name: "invalid token", serviceError: service.ErrInvalidResetToken, expectedCode: http.StatusBadRequest},
		{name: "same password", serviceError: service.ErrSamePassword, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			mockService.On("ResetPassword", mock.Anything, "rawtoken", "newpassword").
				Return(tt.serviceError)

			h := NewAuthHandler(mockService, false)
			c, rec := newTestContext(http.MethodPost, "/auth/reset-password",
				`{"token":"rawtoken","password":"newpassword"}`)

			err := h.ResetPassword(c)

			if tt.serviceError == nil {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
			} else {
				var httpErr *echo.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.expectedCode, httpErr.Code)
			}
		})
	}
}
