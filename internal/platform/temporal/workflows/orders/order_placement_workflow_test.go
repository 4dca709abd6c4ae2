package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	ordersmemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	orderapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-shop-api/internal/platform/temporal/activities/orders"
)

func newEnv(t *testing.T, stock int) (*testsuite.TestWorkflowEnvironment, *catalogmemory.Repository) {
	t.Helper()
	catalog := catalogmemory.NewRepository()
	p, err := catalogdomain.NewProduct("p1", "Keyboard", decimal.RequireFromString("10.00"), stock)
	require.NoError(t, err)
	_, err = catalog.Save(context.Background(), p)
	require.NoError(t, err)

	service := orderapp.NewService(ordersmemory.NewStore(catalog))
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(OrderPlacementWorkflow, workflow.RegisterOptions{Name: OrderPlacementWorkflowName})
	env.RegisterActivityWithOptions(orderactivities.NewActivities(service).PlaceOrder,
		activity.RegisterOptions{Name: orderactivities.PlaceOrderActivityName})
	return env, catalog
}

func TestOrderPlacementWorkflow_PlacesOrder(t *testing.T) {
	env, catalog := newEnv(t, 5)

	env.ExecuteWorkflow(OrderPlacementWorkflowName, OrderPlacementWorkflowInput{
		Command: orderports.PlaceOrderInput{UserID: "u1", Items: orderdomain.Cart{{ProductID: "p1", Quantity: 2}}},
		TraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var order orderdomain.Order
	require.NoError(t, env.GetWorkflowResult(&order))
	require.Equal(t, orderdomain.StatusPending, order.Status)
	require.True(t, decimal.RequireFromString("20").Equal(order.Total))

	p, err := catalog.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 3, p.Stock)
}

func TestOrderPlacementWorkflow_InsufficientStockIsNotRetried(t *testing.T) {
	env, catalog := newEnv(t, 1)
	var attempts int
	env.SetOnActivityStartedListener(func(*activity.Info, context.Context, converter.EncodedValues) {
		attempts++
	})

	env.ExecuteWorkflow(OrderPlacementWorkflowName, OrderPlacementWorkflowInput{
		Command: orderports.PlaceOrderInput{UserID: "u1", Items: orderdomain.Cart{{ProductID: "p1", Quantity: 2}}},
	})
	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	require.Equal(t, 1, attempts)

	decoded := orderactivities.DecodeError(err)
	require.ErrorIs(t, decoded, catalogdomain.ErrInsufficientStock)

	p, getErr := catalog.GetByID(context.Background(), "p1")
	require.NoError(t, getErr)
	require.Equal(t, 1, p.Stock)
}
