package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func testContext(t *testing.T, url string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", url, nil)
	return ctx
}

func TestParseListQueryDefaults(t *testing.T) {
	query := ParseListQuery(testContext(t, "/api/donations"))

	assert.Equal(t, 1, query.Page)
	assert.Equal(t, 10, query.Limit)
	assert.Equal(t, int64(0), query.Skip)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, query.Sort)
}

func TestParseListQueryPagination(t *testing.T) {
	query := ParseListQuery(testContext(t, "/api/donations?page=3&limit=25"))

	assert.Equal(t, 3, query.Page)
	assert.Equal(t, 25, query.Limit)
	assert.Equal(t, int64(50), query.Skip)
}

func TestParseListQueryClampsBadValues(t *testing.T) {
	query := ParseListQuery(testContext(t, "/api/donations?page=-2&limit=9999"))

	assert.Equal(t, 1, query.Page)
	assert.Equal(t, 100, query.Limit)

	query = ParseListQuery(testContext(t, "/api/donations?page=abc&limit=xyz"))

	assert.Equal(t, 1, query.Page)
	assert.Equal(t, 10, query.Limit)
}

func TestParseListQuerySort(t *testing.T) {
	query := ParseListQuery(testContext(t, "/api/donations?sortBy=expiryTime&sortOrder=asc"))

	assert.Equal(t, bson.D{{Key: "expiryTime", Value: 1}}, query.Sort)
}

func TestParseCoordinates(t *testing.T) {
	coords, err := ParseCoordinates("-122.4194,37.7749")
	require.NoError(t, err)
	assert.Equal(t, []float64{-122.4194, 37.7749}, coords)

	coords, err = ParseCoordinates(" -73.9857 , 40.7484 ")
	require.NoError(t, err)
	assert.Equal(t, []float64{-73.9857, 40.7484}, coords)

	_, err = ParseCoordinates("37.7749")
	assert.Error(t, err)

	_, err = ParseCoordinates("west,north")
	assert.Error(t, err)

	_, err = ParseCoordinates("-200,40")
	assert.Error(t, err)

	_, err = ParseCoordinates("-122,95")
	assert.Error(t, err)
}

func TestNearFilterConvertsMilesToMeters(t *testing.T) {
	filter := NearFilter([]float64{-122.4, 37.7}, 10)

	near := filter["$near"].(bson.M)
	assert.InDelta(t, 16093.4, near["$maxDistance"].(float64), 0.01)

	geometry := near["$geometry"].(bson.M)
	assert.Equal(t, "Point", geometry["type"])
}

func TestWithinRadiusFilterUsesRadians(t *testing.T) {
	filter := WithinRadiusFilter([]float64{-122.4, 37.7}, 25)

	within := filter["$geoWithin"].(bson.M)
	sphere := within["$centerSphere"].(bson.A)

	require.Len(t, sphere, 2)
	assert.InDelta(t, 25.0/3963.2, sphere[1].(float64), 1e-9)
}
