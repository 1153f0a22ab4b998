package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func performAuth(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest("GET", "/api/auth/me", nil)
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}

	AuthMiddleware()(ctx)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	recorder := performAuth(t, "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	body := decodeEnvelope(t, recorder)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authorization token is required", body["message"])
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	for _, header := range []string{"Token abc123", "Bearer"} {
		recorder := performAuth(t, header)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		body := decodeEnvelope(t, recorder)
		assert.Equal(t, "Authorization header format must be Bearer {token}", body["message"])
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	recorder := performAuth(t, "Bearer not-a-real-token")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	body := decodeEnvelope(t, recorder)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

func requireUserTypeRequest(t *testing.T, user *AuthenticatedUser, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest("POST", "/api/donations", nil)
	if user != nil {
		ctx.Set(types.ContextUserKey, *user)
	}

	RequireUserType(allowed...)(ctx)
	return recorder
}

func TestRequireUserTypeAllowsMatchingRole(t *testing.T) {
	user := AuthenticatedUser{ID: primitive.NewObjectID(), UserType: models.UserTypeDonor}

	recorder := requireUserTypeRequest(t, &user, models.UserTypeDonor)

	// No abort means the handler chain would continue.
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Body.String())
}

func TestRequireUserTypeRejectsWrongRole(t *testing.T) {
	user := AuthenticatedUser{ID: primitive.NewObjectID(), UserType: models.UserTypeDonor}

	recorder := requireUserTypeRequest(t, &user, models.UserTypeNGO)

	assert.Equal(t, http.StatusForbidden, recorder.Code)

	body := decodeEnvelope(t, recorder)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "ngo")
}

func TestRequireUserTypeRejectsMissingUser(t *testing.T) {
	recorder := requireUserTypeRequest(t, nil, models.UserTypeNGO)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireUserTypeMultipleRoles(t *testing.T) {
	user := AuthenticatedUser{ID: primitive.NewObjectID(), UserType: models.UserTypeNGO}

	recorder := requireUserTypeRequest(t, &user, models.UserTypeDonor, models.UserTypeNGO)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Body.String())
}
