package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// storefrontAddRequest mirrors the add-to-cart form: override replaces the
// quantity instead of adding to it.
type storefrontAddRequest struct {
	Quantity *int `json:"quantity" form:"quantity"`
	Override bool `json:"override" form:"override"`
}

type storefrontUpdateRequest struct {
	Quantity *int `json:"quantity" form:"quantity" binding:"required,min=1,max=99"`
}

// Storefront routes work on the caller's single cart, creating it on demand.

func ShowSessionCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cart, _, err := carts.ResolveCart(ctx.Request.Context(), identity(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderCart(ctx, carts, http.StatusOK, cart)
	}
}

func AddToSessionCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		productID, ok := paramID(ctx, "product_id")
		if !ok {
			return
		}

		var req storefrontAddRequest
		if err := ctx.ShouldBind(&req); err != nil {
			respondWithError(ctx, utils.BindingError(err))
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		id := identity(ctx)
		cart, _, err := carts.ResolveCart(ctx.Request.Context(), id)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		if req.Override {
			if cart, err = setProductQuantity(ctx, carts, id, cart, productID, quantity); err != nil {
				respondWithError(ctx, err)
				return
			}
		} else if cart, err = carts.AddItemToCart(ctx.Request.Context(), cart, productID, quantity); err != nil {
			respondWithError(ctx, err)
			return
		}
		renderCart(ctx, carts, http.StatusOK, cart)
	}
}

// setProductQuantity puts exactly quantity units of a product in the cart.
func setProductQuantity(ctx *gin.Context, carts *services.CartService, id services.Identity, cart *models.Cart, productID uint, quantity int) (*models.Cart, error) {
	for _, item := range cart.Items {
		if item.ProductID == productID {
			if _, err := carts.SetQuantity(ctx.Request.Context(), id, item.ID, quantity); err != nil {
				return nil, err
			}
			return carts.GetCart(ctx.Request.Context(), id, cart.ID)
		}
	}
	return carts.AddItemToCart(ctx.Request.Context(), cart, productID, quantity)
}

func UpdateSessionCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		var req storefrontUpdateRequest
		if err := ctx.ShouldBind(&req); err != nil {
			respondWithError(ctx, utils.BindingError(err))
			return
		}

		id := identity(ctx)
		if _, err := carts.SetQuantity(ctx.Request.Context(), id, itemID, *req.Quantity); err != nil {
			respondWithError(ctx, err)
			return
		}
		showResolvedCart(ctx, carts, id)
	}
}

func RemoveFromSessionCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		itemID, ok := paramID(ctx, "item_id")
		if !ok {
			return
		}

		id := identity(ctx)
		if err := carts.RemoveItem(ctx.Request.Context(), id, itemID); err != nil {
			respondWithError(ctx, err)
			return
		}
		showResolvedCart(ctx, carts, id)
	}
}

func ClearSessionCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cart, _, err := carts.ResolveCart(ctx.Request.Context(), identity(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		cart, err = carts.ClearCart(ctx.Request.Context(), cart)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderCart(ctx, carts, http.StatusOK, cart)
	}
}

func showResolvedCart(ctx *gin.Context, carts *services.CartService, id services.Identity) {
	cart, _, err := carts.ResolveCart(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	renderCart(ctx, carts, http.StatusOK, cart)
}
