package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
		level   zapcore.Level
	}{
		{
			name:    "slot taken",
			err:     apperror.New(apperror.KindSlotUnavailable, "Reader is not available at the requested time"),
			status:  http.StatusConflict,
			code:    "SLOT_UNAVAILABLE",
			message: "Reader is not available at the requested time",
			level:   zapcore.WarnLevel,
		},
		{
			name:    "internal cause is hidden",
			err:     apperror.Internal("Failed to create reading", errors.New("pq: connection refused")),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_ERROR",
			message: "Internal server error",
			level:   zapcore.ErrorLevel,
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_ERROR",
			message: "Internal server error",
			level:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			rec := httptest.NewRecorder()

			handleServiceError(rec, zap.New(core), tt.err, "book")

			require.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")

			var resp utils.Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Status)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.level, logs.All()[0].Level)
		})
	}
}

func TestHandleServiceError_Details(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(),
		apperror.Validation("Validation failed", map[string]string{"topic": "This field is required"}), "book")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Equal(t, map[string]any{"topic": "This field is required"}, resp.Errors)
}

func TestIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, identity(req).Authenticated())

	userID := uuid.New()
	req = req.WithContext(utils.SetUserContext(req.Context(), userID, "admin"))

	id := identity(req)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, entity.RoleAdmin, id.Role)
	assert.True(t, id.IsAdmin())
}

func TestPaginationFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&perPage=25", nil)
	p := paginationFromQuery(req)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.PerPage)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&perPage=abc", nil)
	p = paginationFromQuery(req)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PerPage)
}
