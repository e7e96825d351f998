package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_WritesRawBody(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusCreated, map[string]string{"tag_id": "abc"}, testLogger())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"tag_id":"abc"}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()

	NotFound(w, "route not found", testLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "route not found", body.Message)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"domain forbidden", domainerrors.Forbidden("not yours"), http.StatusForbidden, "FORBIDDEN"},
		{"domain validation", domainerrors.Validation("bad"), http.StatusBadRequest, "VALIDATION"},
		{"store conflict", store.ErrTagLinkExists, http.StatusConflict, "CONFLICT"},
		{"store not found", store.ErrNoteNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, testLogger())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("sql: connection refused"), testLogger())

	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, domainerrors.CodeValidation, CodeForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, domainerrors.CodeTooManyRequests, CodeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, domainerrors.CodeInternal, CodeForStatus(http.StatusTeapot))
}
