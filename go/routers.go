package shopserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Access is the authorization level a route requires.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Access selects the auth middleware chained in front of the handler.
	Access Access
}

// ApiHandleFunctions groups the API handlers mounted by NewRouter.
type ApiHandleFunctions struct {
	ProductAPI ProductAPI
	OrderAPI   OrderAPI
	UserAPI    UserAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	authenticate := RequireIdentity(handleFunctions.UserAPI.service)
	admin := RequireAdmin()
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		chain := make([]gin.HandlerFunc, 0, 3)
		switch route.Access {
		case Authenticated:
			chain = append(chain, authenticate)
		case Admin:
			chain = append(chain, authenticate, admin)
		}
		chain = append(chain, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, chain...)
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler yet.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", Healthz, Public},

		{"ListProducts", http.MethodGet, "/products", handleFunctions.ProductAPI.ListProducts, Public},
		{"GetProduct", http.MethodGet, "/products/:productId", handleFunctions.ProductAPI.GetProduct, Public},
		{"CreateProduct", http.MethodPost, "/products", handleFunctions.ProductAPI.CreateProduct, Admin},
		{"RestockProduct", http.MethodPost, "/products/:productId/restock", handleFunctions.ProductAPI.RestockProduct, Admin},

		{"PlaceOrder", http.MethodPost, "/orders", handleFunctions.OrderAPI.PlaceOrder, Authenticated},
		{"ListOrders", http.MethodGet, "/orders", handleFunctions.OrderAPI.ListOrders, Authenticated},
		// Same listing as GET /orders?status=. The static segment wins over
		// :orderId, and order ids are UUIDs, so "status" never names an order.
		{"ListOrdersByStatus", http.MethodGet, "/orders/status/:status", handleFunctions.OrderAPI.ListOrdersByStatus, Authenticated},
		{"GetOrder", http.MethodGet, "/orders/:orderId", handleFunctions.OrderAPI.GetOrder, Authenticated},
		{"CancelOrder", http.MethodPost, "/orders/:orderId/cancel", handleFunctions.OrderAPI.CancelOrder, Authenticated},
		{"PayOrder", http.MethodPost, "/orders/:orderId/pay", handleFunctions.OrderAPI.PayOrder, Authenticated},
		{"UpdateOrderStatus", http.MethodPatch, "/orders/:orderId/status", handleFunctions.OrderAPI.UpdateOrderStatus, Admin},
		{"DeleteOrder", http.MethodDelete, "/orders/:orderId", handleFunctions.OrderAPI.DeleteOrder, Authenticated},

		{"RegisterUser", http.MethodPost, "/users/register", handleFunctions.UserAPI.RegisterUser, Public},
		{"LoginUser", http.MethodPost, "/users/login", handleFunctions.UserAPI.LoginUser, Public},
		{"LogoutUser", http.MethodPost, "/users/logout", handleFunctions.UserAPI.LogoutUser, Authenticated},
		{"CurrentUser", http.MethodGet, "/users/me", handleFunctions.UserAPI.CurrentUser, Authenticated},
	}
}
