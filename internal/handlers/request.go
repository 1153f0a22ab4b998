package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/db"
	"github.com/sharebutes/sharebutes/internal/middleware"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FoodRequestBody struct {
	Title               string               `json:"title" binding:"required"`
	Description         string               `json:"description" binding:"required"`
	FoodTypes           []string             `json:"foodTypes"`
	Quantity            models.Quantity      `json:"quantity" binding:"required"`
	Urgency             string               `json:"urgency"`
	NeededBy            time.Time            `json:"neededBy" binding:"required"`
	Location            models.Location      `json:"location" binding:"required"`
	Beneficiaries       models.Beneficiaries `json:"beneficiaries" binding:"required"`
	DietaryRestrictions []string             `json:"dietaryRestrictions"`
	Allergens           []string             `json:"allergens"`
	Tags                []string             `json:"tags"`
	IsUrgent            bool                 `json:"isUrgent"`
	Notes               string               `json:"notes"`
	ContactInfo         models.ContactInfo   `json:"contactInfo"`
}

type FulfillRequestBody struct {
	DonationID string          `json:"donationId" binding:"required"`
	Quantity   models.Quantity `json:"quantity" binding:"required"`
}

func (body *FoodRequestBody) toRequest(requester middleware.AuthenticatedUser, now time.Time) models.Request {
	foodTypes := body.FoodTypes
	if len(foodTypes) == 0 {
		foodTypes = []string{"other"}
	}

	urgency := body.Urgency
	if urgency == "" {
		urgency = "medium"
	}

	restrictions := body.DietaryRestrictions
	if len(restrictions) == 0 {
		restrictions = []string{"none"}
	}

	allergens := body.Allergens
	if len(allergens) == 0 {
		allergens = []string{"none"}
	}

	tags := body.Tags
	if tags == nil {
		tags = []string{}
	}

	location := body.Location
	if location.Coordinates.Type == "" {
		location.Coordinates.Type = "Point"
	}
	if location.Address.Country == "" {
		location.Address.Country = "United States"
	}

	// Contact details fall back to the requester's profile.
	contact := body.ContactInfo
	if contact.Email == "" {
		contact.Email = requester.Email
	}
	if contact.Phone == "" {
		contact.Phone = requester.Phone
	}
	if contact.PreferredContact == "" {
		contact.PreferredContact = "email"
	}

	return models.Request{
		Requester:           requester.ID,
		Title:               body.Title,
		Description:         body.Description,
		FoodTypes:           foodTypes,
		Quantity:            body.Quantity,
		Urgency:             urgency,
		NeededBy:            body.NeededBy,
		Location:            location,
		Beneficiaries:       body.Beneficiaries,
		DietaryRestrictions: restrictions,
		Allergens:           allergens,
		Status:              models.RequestPending,
		FulfilledBy:         []models.Fulfillment{},
		Tags:                tags,
		IsUrgent:            body.IsUrgent,
		Notes:               body.Notes,
		ContactInfo:         contact,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func CreateRequest(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body FoodRequestBody

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Invalid request")
		return
	}

	now := time.Now()
	request := body.toRequest(currentUser, now)

	if err := request.Validate(now); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	result, err := db.Collection(db.RequestsCollection).InsertOne(ctx.Request.Context(), request)

	if err != nil {
		log.Printf("Failed to create request: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to create request")
		return
	}

	request.ID = result.InsertedID.(primitive.ObjectID)
	request.RequesterProfile = loadPublicUser(ctx.Request.Context(), request.Requester)

	utils.RespondSuccess(ctx, http.StatusCreated, "Food request created successfully", gin.H{
		"request": request,
	})
}

func attachRequesterProfiles(ctx *gin.Context, results []models.Request) {
	ids := make([]primitive.ObjectID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Requester)
	}
	profiles := loadPublicUsers(ctx.Request.Context(), ids)
	for i := range results {
		if profile, ok := profiles[results[i].Requester]; ok {
			p := profile
			results[i].RequesterProfile = &p
		}
	}
}

func ListRequests(ctx *gin.Context) {
	query := utils.ParseListQuery(ctx)

	filter := bson.M{}

	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}

	if urgency := ctx.Query("urgency"); urgency != "" {
		filter["urgency"] = urgency
	}

	if isUrgent := ctx.Query("isUrgent"); isUrgent != "" {
		filter["isUrgent"] = isUrgent == "true"
	}

	if near := ctx.Query("near"); near != "" {
		coords, err := utils.ParseCoordinates(near)
		if err != nil {
			utils.RespondError(ctx, http.StatusBadRequest, err.Error())
			return
		}

		radius := 25.0
		if r := ctx.Query("radius"); r != "" {
			parsed, err := strconv.ParseFloat(r, 64)
			if err != nil || parsed <= 0 {
				utils.RespondError(ctx, http.StatusBadRequest, "Radius must be a positive number of miles")
				return
			}
			radius = parsed
		}

		filter["location.coordinates"] = utils.WithinRadiusFilter(coords, radius)
	}

	requests := db.Collection(db.RequestsCollection)

	total, err := requests.CountDocuments(ctx.Request.Context(), filter)

	if err != nil {
		log.Printf("Failed to count requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}

	cursor, err := requests.Find(ctx.Request.Context(), filter, options.Find().
		SetSort(query.Sort).
		SetSkip(query.Skip).
		SetLimit(int64(query.Limit)))

	if err != nil {
		log.Printf("Failed to list requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}

	defer cursor.Close(ctx.Request.Context())

	results := []models.Request{}
	if err := cursor.All(ctx.Request.Context(), &results); err != nil {
		log.Printf("Failed to decode requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}

	attachRequesterProfiles(ctx, results)

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"requests":   results,
		"pagination": utils.NewPagination(query.Page, query.Limit, total),
	})
}

func getRequestByID(ctx *gin.Context) (*models.Request, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))

	if err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "Request not found")
		return nil, false
	}

	var request models.Request
	err = db.Collection(db.RequestsCollection).
		FindOne(ctx.Request.Context(), bson.M{"_id": id}).
		Decode(&request)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusNotFound, "Request not found")
		} else {
			log.Printf("Failed to fetch request: %v", err)
			utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request")
		}
		return nil, false
	}

	return &request, true
}

func GetRequest(ctx *gin.Context) {
	request, ok := getRequestByID(ctx)
	if !ok {
		return
	}

	request.RequesterProfile = loadPublicUser(ctx.Request.Context(), request.Requester)

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{"request": request})
}

func UpdateRequest(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	request, ok := getRequestByID(ctx)
	if !ok {
		return
	}

	if request.Requester != currentUser.ID {
		utils.RespondError(ctx, http.StatusForbidden, "Access denied. You can only update your own requests.")
		return
	}

	if request.Status != models.RequestPending {
		utils.RespondError(ctx, http.StatusBadRequest, "Cannot update fulfilled or cancelled requests")
		return
	}

	var body FoodRequestBody

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Invalid request")
		return
	}

	now := time.Now()
	updated := body.toRequest(currentUser, now)
	updated.ID = request.ID
	updated.FulfilledBy = request.FulfilledBy
	updated.CreatedAt = request.CreatedAt

	if err := updated.Validate(now); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	_, err = db.Collection(db.RequestsCollection).ReplaceOne(
		ctx.Request.Context(),
		bson.M{"_id": request.ID},
		updated,
	)

	if err != nil {
		log.Printf("Failed to update request: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to update request")
		return
	}

	updated.RequesterProfile = loadPublicUser(ctx.Request.Context(), updated.Requester)

	utils.RespondSuccess(ctx, http.StatusOK, "Request updated successfully", gin.H{
		"request": updated,
	})
}

func DeleteRequest(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	request, ok := getRequestByID(ctx)
	if !ok {
		return
	}

	if request.Requester != currentUser.ID {
		utils.RespondError(ctx, http.StatusForbidden, "Access denied. You can only delete your own requests.")
		return
	}

	if request.Status != models.RequestPending {
		utils.RespondError(ctx, http.StatusBadRequest, "Cannot delete fulfilled or cancelled requests")
		return
	}

	if _, err := db.Collection(db.RequestsCollection).
		DeleteOne(ctx.Request.Context(), bson.M{"_id": request.ID}); err != nil {
		log.Printf("Failed to delete request: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to delete request")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Request deleted successfully", nil)
}

func CancelRequest(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	request, ok := getRequestByID(ctx)
	if !ok {
		return
	}

	if request.Requester != currentUser.ID {
		utils.RespondError(ctx, http.StatusForbidden, "Access denied. You can only cancel your own requests.")
		return
	}

	if err := request.Cancel(); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	_, err = db.Collection(db.RequestsCollection).UpdateOne(
		ctx.Request.Context(),
		bson.M{"_id": request.ID},
		bson.M{"$set": bson.M{"status": request.Status, "updatedAt": time.Now()}},
	)

	if err != nil {
		log.Printf("Failed to cancel request: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to cancel request")
		return
	}

	request.RequesterProfile = loadPublicUser(ctx.Request.Context(), request.Requester)

	utils.RespondSuccess(ctx, http.StatusOK, "Request cancelled successfully", gin.H{
		"request": request,
	})
}

// FulfillRequest records that a claimed donation covers part of this request.
// The referenced donation must have been claimed by the requester.
func FulfillRequest(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	request, ok := getRequestByID(ctx)
	if !ok {
		return
	}

	if request.Requester != currentUser.ID {
		utils.RespondError(ctx, http.StatusForbidden, "Access denied. You can only fulfill your own requests.")
		return
	}

	var body FulfillRequestBody

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Donation ID and quantity are required")
		return
	}

	donationID, err := primitive.ObjectIDFromHex(body.DonationID)

	if err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "Donation not found")
		return
	}

	var donation models.Donation
	err = db.Collection(db.DonationsCollection).
		FindOne(ctx.Request.Context(), bson.M{"_id": donationID}).
		Decode(&donation)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusNotFound, "Donation not found")
			return
		}
		log.Printf("Failed to fetch donation for fulfillment: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to fulfill request")
		return
	}

	if donation.ClaimedBy == nil || *donation.ClaimedBy != currentUser.ID {
		utils.RespondError(ctx, http.StatusBadRequest, "Donation must be claimed by you before it can fulfill a request")
		return
	}

	now := time.Now()

	if err := request.Fulfill(donationID, body.Quantity, now); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	_, err = db.Collection(db.RequestsCollection).UpdateOne(
		ctx.Request.Context(),
		bson.M{"_id": request.ID},
		bson.M{"$set": bson.M{
			"fulfilledBy": request.FulfilledBy,
			"status":      request.Status,
			"updatedAt":   now,
		}},
	)

	if err != nil {
		log.Printf("Failed to record fulfillment: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to fulfill request")
		return
	}

	request.RequesterProfile = loadPublicUser(ctx.Request.Context(), request.Requester)

	utils.RespondSuccess(ctx, http.StatusOK, "Fulfillment recorded successfully", gin.H{
		"request": request,
	})
}

func GetMyRequests(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	query := utils.ParseListQuery(ctx)

	filter := bson.M{"requester": userID}
	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}

	requests := db.Collection(db.RequestsCollection)

	total, err := requests.CountDocuments(ctx.Request.Context(), filter)

	if err != nil {
		log.Printf("Failed to count requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}

	cursor, err := requests.Find(ctx.Request.Context(), filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(query.Skip).
		SetLimit(int64(query.Limit)))

	if err != nil {
		log.Printf("Failed to list requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}

	defer cursor.Close(ctx.Request.Context())

	results := []models.Request{}
	if err := cursor.All(ctx.Request.Context(), &results); err != nil {
		log.Printf("Failed to decode requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve requests")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"requests":   results,
		"pagination": utils.NewPagination(query.Page, query.Limit, total),
	})
}

func GetUrgentRequests(ctx *gin.Context) {
	limit := 20
	if l := ctx.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	cursor, err := db.Collection(db.RequestsCollection).Find(
		ctx.Request.Context(),
		bson.M{"isUrgent": true, "status": models.RequestPending},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(limit)),
	)

	if err != nil {
		log.Printf("Failed to list urgent requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve urgent requests")
		return
	}

	defer cursor.Close(ctx.Request.Context())

	results := []models.Request{}
	if err := cursor.All(ctx.Request.Context(), &results); err != nil {
		log.Printf("Failed to decode urgent requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve urgent requests")
		return
	}

	attachRequesterProfiles(ctx, results)

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"requests": results,
		"count":    len(results),
	})
}

func GetNearbyRequests(ctx *gin.Context) {
	coordsParam := ctx.Query("coordinates")

	if coordsParam == "" {
		utils.RespondError(ctx, http.StatusBadRequest, "Coordinates are required for nearby search")
		return
	}

	coords, err := utils.ParseCoordinates(coordsParam)

	if err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	maxDistance := 25.0
	if d := ctx.Query("maxDistance"); d != "" {
		parsed, err := strconv.ParseFloat(d, 64)
		if err != nil || parsed <= 0 {
			utils.RespondError(ctx, http.StatusBadRequest, "maxDistance must be a positive number of miles")
			return
		}
		maxDistance = parsed
	}

	limit := 20
	if l := ctx.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	cursor, err := db.Collection(db.RequestsCollection).Find(
		ctx.Request.Context(),
		bson.M{
			"status":               models.RequestPending,
			"location.coordinates": utils.NearFilter(coords, maxDistance),
		},
		options.Find().SetLimit(int64(limit)),
	)

	if err != nil {
		log.Printf("Failed to list nearby requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve nearby requests")
		return
	}

	defer cursor.Close(ctx.Request.Context())

	results := []models.Request{}
	if err := cursor.All(ctx.Request.Context(), &results); err != nil {
		log.Printf("Failed to decode nearby requests: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve nearby requests")
		return
	}

	attachRequesterProfiles(ctx, results)

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"requests":    results,
		"count":       len(results),
		"maxDistance": maxDistance,
	})
}

type requestTotals struct {
	TotalRequests      int `bson:"totalRequests" json:"totalRequests"`
	PendingRequests    int `bson:"pendingRequests" json:"pendingRequests"`
	FulfilledRequests  int `bson:"fulfilledRequests" json:"fulfilledRequests"`
	CancelledRequests  int `bson:"cancelledRequests" json:"cancelledRequests"`
	TotalBeneficiaries int `bson:"totalBeneficiaries" json:"totalBeneficiaries"`
}

type urgencyBucket struct {
	Urgency string `bson:"_id" json:"urgency"`
	Count   int    `bson:"count" json:"count"`
}

func GetRequestStats(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	requests := db.Collection(db.RequestsCollection)

	totalsPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"requester": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":                nil,
			"totalRequests":      bson.M{"$sum": 1},
			"pendingRequests":    statusCount(models.RequestPending),
			"fulfilledRequests":  statusCount(models.RequestFulfilled),
			"cancelledRequests":  statusCount(models.RequestCancelled),
			"totalBeneficiaries": bson.M{"$sum": "$beneficiaries.count"},
		}}},
	}

	cursor, err := requests.Aggregate(ctx.Request.Context(), totalsPipeline)

	if err != nil {
		log.Printf("Failed to aggregate request stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request statistics")
		return
	}

	var totals []requestTotals
	if err := cursor.All(ctx.Request.Context(), &totals); err != nil {
		log.Printf("Failed to decode request stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request statistics")
		return
	}

	urgencyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"requester": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$urgency",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err = requests.Aggregate(ctx.Request.Context(), urgencyPipeline)

	if err != nil {
		log.Printf("Failed to aggregate urgency stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request statistics")
		return
	}

	var urgency []urgencyBucket
	if err := cursor.All(ctx.Request.Context(), &urgency); err != nil {
		log.Printf("Failed to decode urgency stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request statistics")
		return
	}

	monthlyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"requester": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$createdAt"},
				"month": bson.M{"$month": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: -1}, {Key: "_id.month", Value: -1}}}},
		{{Key: "$limit", Value: 12}},
	}

	cursor, err = requests.Aggregate(ctx.Request.Context(), monthlyPipeline)

	if err != nil {
		log.Printf("Failed to aggregate monthly request stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request statistics")
		return
	}

	var monthly []monthlyBucket
	if err := cursor.All(ctx.Request.Context(), &monthly); err != nil {
		log.Printf("Failed to decode monthly request stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve request statistics")
		return
	}

	stats := requestTotals{}
	if len(totals) > 0 {
		stats = totals[0]
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"stats":        stats,
		"urgencyStats": urgency,
		"monthlyStats": monthly,
	})
}
