package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/services"
	"github.com/gin-gonic/gin"
)

// Signup handles user registration
func Signup(users *services.UserService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var data models.SignupData
		if !bindJSON(ctx, &data) {
			return
		}

		user, err := users.Signup(ctx.Request.Context(), data)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		sendJSONResponse(ctx, http.StatusCreated, gin.H{
			"message": msgUserCreated,
			"user":    newProfileView(*user, 0),
		})
	}
}

// Login exchanges a username or email and a password for a bearer token.
func Login(users *services.UserService, tokenTTLSeconds int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var data models.LoginData
		if !bindJSON(ctx, &data) {
			return
		}

		token, user, err := users.Login(ctx.Request.Context(), data.Identifier, data.Password)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"token":      token,
			"token_type": "Bearer",
			"expires_in": tokenTTLSeconds,
			"user":       gin.H{"id": user.ID, "username": user.Username, "role": user.Role},
		})
	}
}
