package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetUpdateRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest("PUT", "/widgets/widget-1", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "widget-1")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, "user", &models.User{ID: "user-1"})
	return req.WithContext(ctx)
}

func expectWidgetLookup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "widgets"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "kind", "slot", "pos_x", "pos_y", "width", "height", "is_enabled"}).
			AddRow("widget-1", "user-1", "news", 0, 5, 6, 2, 1, true))
	mock.ExpectExec(`UPDATE "widgets" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestUpdateWidgetKeepsPositionOnPartialUpdate(t *testing.T) {
	repo, mock := newMockRepository(t)
	e := NewSettingsEndpoints(repo)
	expectWidgetLookup(mock)

	rec := httptest.NewRecorder()
	e.UpdateWidgetHandler(rec, widgetUpdateRequest(t, `{"width": 3}`))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Widget models.Widget `json:"widget"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Widget.PosX)
	assert.Equal(t, 6, resp.Widget.PosY)
	assert.Equal(t, 3, resp.Widget.Width)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWidgetMovesPosition(t *testing.T) {
	repo, mock := newMockRepository(t)
	e := NewSettingsEndpoints(repo)
	expectWidgetLookup(mock)

	rec := httptest.NewRecorder()
	e.UpdateWidgetHandler(rec, widgetUpdateRequest(t, `{"pos_x": 0, "pos_y": 9}`))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Widget models.Widget `json:"widget"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Widget.PosX)
	assert.Equal(t, 9, resp.Widget.PosY)
	assert.Equal(t, 2, resp.Widget.Width)
	assert.NoError(t, mock.ExpectationsWereMet())
}
