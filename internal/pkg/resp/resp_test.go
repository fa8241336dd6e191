package resp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmchat/internal/pkg/errs"
)

func TestRespondSuccess_RawBody(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondSuccess(w, r, 7)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "7", w.Body.String())
}

func TestRespondErr_WrappedCustomError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondErr(w, r, fmt.Errorf("get user: %w", errs.NewError(errs.ErrUserNotFound)))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errs.ErrUserNotFound, body.Code)
	assert.Equal(t, "User not found.", body.Error)
}

func TestRespondError_NilDefaultsToUnknown(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(w, r, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
