package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/internal/middleware"
	"github.com/sharebutes/sharebutes/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("user not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (primitive.ObjectID, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return primitive.NilObjectID, err
	}

	return user.ID, nil
}
