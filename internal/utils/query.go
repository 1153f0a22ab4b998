package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	// MilesToMeters converts a radius in miles to the meters Mongo's $near
	// expects.
	MilesToMeters = 1609.34
)

// ListQuery carries the parsed page/limit/sort parameters shared by every
// list endpoint.
type ListQuery struct {
	Page  int
	Limit int
	Skip  int64
	Sort  bson.D
}

func ParseListQuery(ctx *gin.Context) ListQuery {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		page = defaultPage
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	sortBy := ctx.DefaultQuery("sortBy", "createdAt")
	order := -1
	if ctx.DefaultQuery("sortOrder", "desc") == "asc" {
		order = 1
	}

	return ListQuery{
		Page:  page,
		Limit: limit,
		Skip:  int64((page - 1) * limit),
		Sort:  bson.D{{Key: sortBy, Value: order}},
	}
}

// ParseCoordinates parses a "lng,lat" query value into a GeoJSON coordinate
// pair.
func ParseCoordinates(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("coordinates must be in longitude,latitude format")
	}

	coords := make([]float64, 2)
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate value: %s", part)
		}
		coords[i] = f
	}

	if coords[0] < -180 || coords[0] > 180 || coords[1] < -90 || coords[1] > 90 {
		return nil, fmt.Errorf("coordinates out of range")
	}

	return coords, nil
}

// NearFilter builds a $near geo filter for the given coordinates and radius
// in miles. Results come back ordered by distance, but the filter cannot be
// used with CountDocuments.
func NearFilter(coords []float64, radiusMiles float64) bson.M {
	return bson.M{
		"$near": bson.M{
			"$geometry": bson.M{
				"type":        "Point",
				"coordinates": coords,
			},
			"$maxDistance": radiusMiles * MilesToMeters,
		},
	}
}

// earthRadiusMiles is the radius $centerSphere uses to convert miles to
// radians.
const earthRadiusMiles = 3963.2

// WithinRadiusFilter builds a $geoWithin filter for the given coordinates and
// radius in miles. Unlike $near it works with CountDocuments, so paginated
// list endpoints use this form.
func WithinRadiusFilter(coords []float64, radiusMiles float64) bson.M {
	return bson.M{
		"$geoWithin": bson.M{
			"$centerSphere": bson.A{coords, radiusMiles / earthRadiusMiles},
		},
	}
}
