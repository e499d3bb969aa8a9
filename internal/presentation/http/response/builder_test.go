package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petalworks/bloom/pkg/errorbank"
)

func testContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBuildSuccess(t *testing.T) {
	c, rec := testContext(t)

	err := New(c).
		WithData(map[string]any{"number": "BLM-1"}).
		WithMeta("total", 3).
		Build()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "BLM-1", body["data"].(map[string]any)["number"])
	assert.Equal(t, float64(3), body["meta"].(map[string]any)["total"])
}

func TestBuildCreated(t *testing.T) {
	c, rec := testContext(t)

	err := New(c).WithStatus(http.StatusCreated).WithData("ok").Build()
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBuildNoContent(t *testing.T) {
	c, rec := testContext(t)

	err := New(c).WithStatus(http.StatusNoContent).Build()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestBuildErrorUsesKindStatus(t *testing.T) {
	c, rec := testContext(t)

	appErr := errorbank.Conflict("cannot move order from delivered to preparing",
		errorbank.WithDetail("from", "delivered"))
	err := New(c).WithError(appErr).Build()
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "conflict", errBody["kind"])
	assert.Equal(t, "delivered", errBody["details"].(map[string]any)["from"])
}

func TestBuildErrorWrapsUnknown(t *testing.T) {
	c, rec := testContext(t)

	err := New(c).WithError(assert.AnError).Build()
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "internal", body["error"].(map[string]any)["kind"])
}
