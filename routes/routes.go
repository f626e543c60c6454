package routes

import (
	"fmt"

	"github.com/Kariqs/eshop-api/controllers"
	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/Kariqs/eshop-api/services"
	"github.com/gin-gonic/gin"
)

// Deps are the services the handlers are built from.
type Deps struct {
	Carts           *services.CartService
	Catalog         *services.CatalogService
	Users           *services.UserService
	TokenTTLSeconds int
}

// Register mounts every route. The global middleware chain must already be installed.
func Register(server *gin.Engine, deps Deps) {
	server.NoRoute(middlewares.NotFound())

	DefaultRoutes(server, deps)
	AuthRoutes(server, deps)
	StorefrontRoutes(server, deps)

	api := server.Group("/api/:version", controllers.ResolveVersion())
	ProductRoutes(api, deps)
	CartRoutes(api, deps)
	ProfileRoutes(api, deps)
	AdminRoutes(api, deps)
}

// NewEngine builds a gin engine with the global middleware chain and every route.
// Forwarded client addresses are only believed from trustedProxies; with none,
// ClientIP is the peer address.
func NewEngine(chain []gin.HandlerFunc, trustedProxies []string, deps Deps) (*gin.Engine, error) {
	server := gin.New()
	if err := server.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	server.Use(chain...)
	Register(server, deps)
	return server, nil
}
