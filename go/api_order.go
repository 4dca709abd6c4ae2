package shopserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/http/mapper"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets clients resubmit POST /orders safely.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// OrderAPI wires HTTP transport with the orders bounded context service and workflows.
type OrderAPI struct {
	service   orderports.Service
	workflows orderports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. Placement goes through workflows when it is non-nil.
func NewOrderAPI(service orderports.Service, workflows orderports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /orders
// Places an order for the caller's cart
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.PlaceOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		respondBindError(c, fmt.Errorf("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLength))
		return
	}
	input := orderhttpmapper.ToPlaceOrderInput(identity.UserID, key, payload)
	order, err := api.placeOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Location", "/orders/"+order.ID)
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

func (api *OrderAPI) placeOrder(ctx context.Context, input orderports.PlaceOrderInput) (*orderdomain.Order, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.PlaceOrder(ctx, input)
}

// Get /orders
// Lists the caller's orders, newest first; ?status= narrows the list
func (api *OrderAPI) ListOrders(c *gin.Context) {
	api.listOrders(c, c.Query("status"))
}

// Get /orders/status/:status
// Lists the caller's orders in one status
func (api *OrderAPI) ListOrdersByStatus(c *gin.Context) {
	api.listOrders(c, c.Param("status"))
}

func (api *OrderAPI) listOrders(c *gin.Context, rawStatus string) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}
	var filter orderports.ListFilter
	if strings.TrimSpace(rawStatus) != "" {
		status, err := orderdomain.ParseStatus(rawStatus)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		filter.Status = status
	}
	orders, err := api.service.ListOrders(c.Request.Context(), identity.UserID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Get /orders/:orderId
// Find one of the caller's orders
func (api *OrderAPI) GetOrder(c *gin.Context) {
	identity, orderID, ok := orderRequest(c)
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), identity, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /orders/:orderId/cancel
// Cancels a pending order and restores its stock
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	identity, orderID, ok := orderRequest(c)
	if !ok {
		return
	}
	order, err := api.service.CancelOrder(c.Request.Context(), identity, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /orders/:orderId/pay
// Records a simulated payment for a pending order
func (api *OrderAPI) PayOrder(c *gin.Context) {
	identity, orderID, ok := orderRequest(c)
	if !ok {
		return
	}
	order, err := api.service.PayOrder(c.Request.Context(), identity, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Patch /orders/:orderId/status
// Sets an order's status without transition checks (admin)
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := requireParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.UpdateStatus
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	status, err := orderdomain.ParseStatus(payload.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	order, err := api.service.UpdateStatus(c.Request.Context(), orderID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.StatusUpdated{
		Message: fmt.Sprintf("order %s status updated to %s", order.Number, order.Status),
		Order:   orderhttpmapper.FromDomainOrder(order),
	})
}

// Delete /orders/:orderId
// Deletes a cancelled or completed order
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	identity, orderID, ok := orderRequest(c)
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), identity, orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func orderRequest(c *gin.Context) (string, string, bool) {
	identity, ok := mustIdentity(c)
	if !ok {
		return "", "", false
	}
	orderID, ok := requireParam(c, "orderId")
	if !ok {
		return "", "", false
	}
	return identity.UserID, orderID, true
}
