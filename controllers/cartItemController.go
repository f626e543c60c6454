package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// renderItemUpdate answers with the item or, when it was deleted, a removal message.
func renderItemUpdate(ctx *gin.Context, update services.ItemUpdate) {
	if update.Removed {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgItemRemoved})
		return
	}
	sendJSONResponse(ctx, http.StatusOK, newCartItemView(*update.Item))
}

func GetCartItems(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		page, err := carts.ListItems(ctx.Request.Context(), identity(ctx), pageRequest(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, utils.MapPage(page, newCartItemView))
	}
}

func GetCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		item, err := carts.GetItem(ctx.Request.Context(), identity(ctx), itemID)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, newCartItemView(*item))
	}
}

// UpdateCartItem sets the quantity; 0 or less removes the item.
func UpdateCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		var req setQuantityRequest
		if !bindJSON(ctx, &req) {
			return
		}

		update, err := carts.SetQuantity(ctx.Request.Context(), identity(ctx), itemID, *req.Quantity)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderItemUpdate(ctx, update)
	}
}

func DeleteCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		if err := carts.RemoveItem(ctx.Request.Context(), identity(ctx), itemID); err != nil {
			respondWithError(ctx, err)
			return
		}
		noContent(ctx)
	}
}

func IncrementCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		item, err := carts.Increment(ctx.Request.Context(), identity(ctx), itemID)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, newCartItemView(*item))
	}
}

func DecrementCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		update, err := carts.Decrement(ctx.Request.Context(), identity(ctx), itemID)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderItemUpdate(ctx, update)
	}
}
