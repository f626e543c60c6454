package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

func (r addItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// renderCart answers with the cart snapshot including its cached totals.
func renderCart(ctx *gin.Context, carts *services.CartService, status int, cart *models.Cart) {
	totals, err := carts.Totals(ctx.Request.Context(), cart.ID)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, status, newCartView(currentVersion(ctx), *cart, totals))
}

func GetCarts(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		page, err := carts.ListCarts(ctx.Request.Context(), identity(ctx), pageRequest(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		v := currentVersion(ctx)
		var totalsErr error
		views := utils.MapPage(page, func(cart models.Cart) cartView {
			totals, err := carts.Totals(ctx.Request.Context(), cart.ID)
			if err != nil && totalsErr == nil {
				totalsErr = err
			}
			return newCartView(v, cart, totals)
		})
		if totalsErr != nil {
			respondWithError(ctx, totalsErr)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, views)
	}
}

// CreateCart returns the caller's cart, 201 when this request created it.
func CreateCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cart, created, err := carts.ResolveCart(ctx.Request.Context(), identity(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		renderCart(ctx, carts, status, cart)
	}
}

func GetCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cartID, ok := paramID(ctx, "cart_id")
		if !ok {
			return
		}

		cart, err := carts.GetCart(ctx.Request.Context(), identity(ctx), cartID)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderCart(ctx, carts, http.StatusOK, cart)
	}
}

func DeleteCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cartID, ok := paramID(ctx, "cart_id")
		if !ok {
			return
		}

		if err := carts.DeleteCart(ctx.Request.Context(), identity(ctx), cartID); err != nil {
			respondWithError(ctx, err)
			return
		}
		noContent(ctx)
	}
}

func AddCartItem(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cartID, ok := paramID(ctx, "cart_id")
		if !ok {
			return
		}

		var req addItemRequest
		if !bindJSON(ctx, &req) {
			return
		}

		cart, err := carts.AddItem(ctx.Request.Context(), identity(ctx), cartID, req.ProductID, req.quantity())
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderCart(ctx, carts, http.StatusOK, cart)
	}
}

func ClearCart(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cartID, ok := paramID(ctx, "cart_id")
		if !ok {
			return
		}

		cart, err := carts.Clear(ctx.Request.Context(), identity(ctx), cartID)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		renderCart(ctx, carts, http.StatusOK, cart)
	}
}

func GetCartSummary(carts *services.CartService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cartID, ok := paramID(ctx, "cart_id")
		if !ok {
			return
		}

		summary, err := carts.Summary(ctx.Request.Context(), identity(ctx), cartID)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, cartSummaryView{
			TotalItems: summary.TotalItems,
			TotalPrice: money(summary.TotalPrice),
			ItemsCount: summary.ItemsCount,
		})
	}
}
