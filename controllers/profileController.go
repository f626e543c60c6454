package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

func currentProfile(ctx *gin.Context, users *services.UserService, carts *services.CartService) (profileView, error) {
	claims, ok := middlewares.CurrentClaims(ctx)
	if !ok {
		return profileView{}, utils.Unauthorized("authentication credentials were not provided")
	}

	user, err := users.Get(ctx.Request.Context(), claims.UserID)
	if err != nil {
		return profileView{}, err
	}
	count, err := carts.CountForUser(ctx.Request.Context(), user.ID)
	if err != nil {
		return profileView{}, err
	}
	return newProfileView(*user, count), nil
}

func GetMyProfile(users *services.UserService, carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		profile, err := currentProfile(ctx, users, carts)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, profile)
	}
}

// GetProfiles lists profiles visible to the caller, which is only their own.
func GetProfiles(users *services.UserService, carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		profile, err := currentProfile(ctx, users, carts)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		req := pageRequest(ctx).Normalize(1)
		sendJSONResponse(ctx, http.StatusOK, utils.NewPage(req, 1, []profileView{profile}))
	}
}

func GetMyOrders(ctx *gin.Context) {
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgOrdersStub})
}
