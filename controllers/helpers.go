package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	msgItemRemoved  = "Item removed from cart"
	msgOrdersStub   = "Order history is not implemented yet"
	msgUserCreated  = "User created successfully."
	msgWelcome      = "Welcome to the eshop API."
	dateParamLayout = "2006-01-02"
)

func sendJSONResponse(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, data)
}

// respondWithError renders err through the shared error format.
func respondWithError(ctx *gin.Context, err error) {
	middlewares.WriteError(ctx, err)
}

// bindJSON binds the request body into dst, answering 400 on failure.
func bindJSON(ctx *gin.Context, dst any) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		respondWithError(ctx, utils.BindingError(err))
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter. Anything else is a 404,
// the same answer a missing row gets.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondWithError(ctx, utils.NotFound("not found"))
		return 0, false
	}
	return uint(id), true
}

// identity is the authenticated user when there is one, else the session.
func identity(ctx *gin.Context) services.Identity {
	if userID := middlewares.CurrentUserID(ctx); userID != nil {
		return services.Identity{UserID: userID}
	}
	return services.Identity{SessionKey: middlewares.SessionKey(ctx)}
}

func pageRequest(ctx *gin.Context) utils.PageRequest {
	v := currentVersion(ctx)
	return utils.ParsePageRequest(ctx.Query("page"), ctx.Query("page_size"), v.DefaultPageSize, v.MaxPageSize)
}

func queryDecimal(ctx *gin.Context, name string) (*decimal.Decimal, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, utils.FieldError(name, "must be a number")
	}
	return &d, nil
}

func queryBool(ctx *gin.Context, name string) (*bool, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, utils.FieldError(name, "must be true or false")
	}
	return &b, nil
}

func queryDate(ctx *gin.Context, name string) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateParamLayout, raw)
	if err != nil {
		return nil, utils.FieldError(name, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

func queryUint(ctx *gin.Context, name string) (*uint, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, utils.FieldError(name, "must be a positive integer")
	}
	id := uint(n)
	return &id, nil
}

func noContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}
