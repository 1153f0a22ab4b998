package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter()

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter()

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/api/donations"},
		{"GET", "/api/donations/my-donations"},
		{"POST", "/api/donations/64f1c0ffee0ddba11ca7a123/claim"},
		{"POST", "/api/requests"},
		{"GET", "/api/requests/my-requests"},
		{"POST", "/api/requests/64f1c0ffee0ddba11ca7a123/fulfill"},
		{"GET", "/api/auth/me"},
		{"PUT", "/api/auth/profile"},
	}

	for _, route := range routes {
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, httptest.NewRequest(route.method, route.path, nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "%s %s", route.method, route.path)
	}
}
