package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/core/errors"
)

func TestErrorResponseRendersFlatEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewBaseController()
	appErr := errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	require.NoError(t, h.ErrorResponse(c, appErr))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, string(errors.ErrNotFound), body["code"])
	assert.Equal(t, "event not found", body["message"])

	// The envelope is the top level of the body, not nested under a message.
	_, nested := body["message"].(map[string]any)
	assert.False(t, nested)
}

func TestErrorResponseStatusMapping(t *testing.T) {
	cases := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrStateInvalid, http.StatusBadRequest},
		{errors.ErrForbidden, http.StatusForbidden},
		{errors.ErrProvider, http.StatusBadGateway},
		{errors.ErrCrypto, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		h := NewBaseController()
		require.NoError(t, h.ErrorResponse(c, errors.NewAppError(tc.code, "boom", nil)))
		assert.Equal(t, tc.want, rec.Code, "code %s", tc.code)
	}
}
