package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/db"
	"github.com/sharebutes/sharebutes/internal/auth"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/services"
	"github.com/sharebutes/sharebutes/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name         string         `json:"name" binding:"required"`
	Email        string         `json:"email" binding:"required,email"`
	Password     string         `json:"password" binding:"required,min=6"`
	UserType     string         `json:"userType"`
	Organization string         `json:"organization"`
	Phone        string         `json:"phone"`
	Address      models.Address `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name         string          `json:"name"`
	Organization *string         `json:"organization"`
	Phone        *string         `json:"phone"`
	Address      *models.Address `json:"address"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Invalid request")
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	if body.UserType == "" {
		body.UserType = models.UserTypeDonor
	}

	if !models.ValidUserType(body.UserType) {
		utils.RespondError(ctx, http.StatusBadRequest, "User type must be donor or ngo")
		return
	}

	users := db.Collection(db.UsersCollection)

	var existing models.User
	err := users.FindOne(ctx.Request.Context(), bson.M{"email": body.Email}).Decode(&existing)

	if err == nil {
		utils.RespondError(ctx, http.StatusBadRequest, "User with this email already exists")
		return
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		log.Printf("Database error when checking existing user: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	if body.Address.Country == "" {
		body.Address.Country = "United States"
	}

	now := time.Now()

	newUser := models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(passwordHash),
		UserType:     body.UserType,
		Organization: body.Organization,
		Phone:        body.Phone,
		Address:      body.Address,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := users.InsertOne(ctx.Request.Context(), newUser)

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondError(ctx, http.StatusBadRequest, "User with this email already exists")
			return
		}
		log.Printf("Failed to create user: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	newUser.ID = result.InsertedID.(primitive.ObjectID)

	token, err := auth.GenerateJWT(newUser.ID.Hex(), newUser.UserType)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondSuccess(ctx, http.StatusCreated, "User registered successfully", gin.H{
		"user":  newUser,
		"token": token,
	})
}

func Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Please provide email and password")
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	err := db.Collection(db.UsersCollection).
		FindOne(ctx.Request.Context(), bson.M{"email": body.Email}).
		Decode(&user)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !user.IsActive {
		utils.RespondError(ctx, http.StatusUnauthorized, "Account is deactivated. Please contact support.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.UserType)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var user models.User
	if err := db.Collection(db.UsersCollection).
		FindOne(ctx.Request.Context(), bson.M{"_id": currentUser.ID}).
		Decode(&user); err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "User not found")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{"user": user})
}

func UpdateProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body UpdateProfileRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Invalid request")
		return
	}

	updates := bson.M{"updatedAt": time.Now()}

	if body.Name != "" {
		updates["name"] = strings.TrimSpace(body.Name)
	}
	if body.Organization != nil {
		updates["organization"] = *body.Organization
	}
	if body.Phone != nil {
		updates["phone"] = *body.Phone
	}
	if body.Address != nil {
		updates["address"] = *body.Address
	}

	var user models.User
	err = db.Collection(db.UsersCollection).FindOneAndUpdate(
		ctx.Request.Context(),
		bson.M{"_id": currentUser.ID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Failed to update profile: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

func ChangePassword(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body ChangePasswordRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Please provide current and new password (minimum 6 characters)")
		return
	}

	var user models.User
	if err := db.Collection(db.UsersCollection).
		FindOne(ctx.Request.Context(), bson.M{"_id": currentUser.ID}).
		Decode(&user); err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "User not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash new password: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	_, err = db.Collection(db.UsersCollection).UpdateOne(
		ctx.Request.Context(),
		bson.M{"_id": currentUser.ID},
		bson.M{"$set": bson.M{"password": string(passwordHash), "updatedAt": time.Now()}},
	)

	if err != nil {
		log.Printf("Failed to update password: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Password changed successfully", nil)
}

// ForgotPassword issues a reset token. The token is always returned in the
// response body (development shortcut); when SendGrid is configured it is
// also delivered by email.
func ForgotPassword(ctx *gin.Context) {
	var body ForgotPasswordRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Please provide email address")
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	err := db.Collection(db.UsersCollection).
		FindOne(ctx.Request.Context(), bson.M{"email": body.Email}).
		Decode(&user)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusNotFound, "User with this email not found")
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	resetToken, err := auth.GenerateJWT(user.ID.Hex(), user.UserType)

	if err != nil {
		log.Printf("Failed to generate reset token: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := services.SendPasswordResetEmail(user.Name, user.Email, resetToken); err != nil {
		if errors.Is(err, services.ErrMailerDisabled) {
			log.Printf("Mailer disabled, reset token for %s returned in response only", user.Email)
		} else {
			log.Printf("Failed to send reset email to %s: %v", user.Email, err)
		}
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Password reset instructions sent to your email", gin.H{
		"resetToken": resetToken,
	})
}

func Logout(ctx *gin.Context) {
	utils.RespondSuccess(ctx, http.StatusOK, "Logged out successfully", nil)
}

func GetUserStats(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var user models.User
	if err := db.Collection(db.UsersCollection).
		FindOne(ctx.Request.Context(), bson.M{"_id": currentUser.ID}).
		Decode(&user); err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "User not found")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{"stats": user.Stats})
}
