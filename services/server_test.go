package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	repo, mock := newMockRepository(t)
	s := NewServer(&Config{})
	s.gormDB = repo
	s.authService = NewAuthService(repo, "test-secret")
	s.authEndpoints = NewAuthEndpoints(s.authService, nil)
	return s, mock
}

func TestLogoutRequiresAuthentication(t *testing.T) {
	s, mock := newAuthedServer(t)
	router := s.SetupRoutes()

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutRevokesTokens(t *testing.T) {
	s, mock := newAuthedServer(t)
	router := s.SetupRoutes()

	user := &models.User{ID: "user-1", Email: "test@example.com", Role: "user"}
	access, err := s.authService.generateAccessToken(user)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow("user-1", "test@example.com", "user"))
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "permanent_tokens" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	cleared := 0
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Value == "" && cookie.MaxAge < 0 {
			cleared++
		}
	}
	assert.GreaterOrEqual(t, cleared, 3, "access, refresh and permanent cookies must be cleared")
}

func TestMeRequiresAuthentication(t *testing.T) {
	s, mock := newAuthedServer(t)
	router := s.SetupRoutes()

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
