package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/db"
	"github.com/sharebutes/sharebutes/internal/auth"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthenticatedUser struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	UserType     string             `json:"userType"`
	Organization string             `json:"organization"`
	Phone        string             `json:"phone"`
}

func abortUnauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			abortUnauthorized(ctx, "Authorization token is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(ctx, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := auth.VerifyJWT(parts[1])

		if err != nil {
			abortUnauthorized(ctx, "Invalid or expired token")
			return
		}

		userIDHex, ok := claims["user_id"].(string)

		if !ok {
			abortUnauthorized(ctx, "Invalid user ID in token claims")
			return
		}

		userID, err := primitive.ObjectIDFromHex(userIDHex)

		if err != nil {
			abortUnauthorized(ctx, "Invalid user ID in token claims")
			return
		}

		var user models.User

		if err := db.Collection(db.UsersCollection).
			FindOne(ctx.Request.Context(), bson.M{"_id": userID}).
			Decode(&user); err != nil {
			abortUnauthorized(ctx, "User not found")
			return
		}

		if !user.IsActive {
			abortUnauthorized(ctx, "Account is deactivated. Please contact support.")
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			UserType:     user.UserType,
			Organization: user.Organization,
			Phone:        user.Phone,
		})
		ctx.Next()
	}
}

// RequireUserType restricts a route to the given roles. Must run after
// AuthMiddleware.
func RequireUserType(userTypes ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			abortUnauthorized(ctx, "User not authenticated")
			return
		}

		user, ok := value.(AuthenticatedUser)

		if !ok {
			abortUnauthorized(ctx, "User not authenticated")
			return
		}

		for _, t := range userTypes {
			if user.UserType == t {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Access denied. This action requires one of the following roles: " + strings.Join(userTypes, ", "),
		})
	}
}
