package api

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"

	catalogmemory "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/memory"
	ordersmemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	ordersworkflows "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
)

type stubTemporalClient struct {
	client.Client
	closed bool
}

func (c *stubTemporalClient) Close() { c.closed = true }

func testComponents(persistent bool) *Components {
	orders := ordersapp.NewService(ordersmemory.NewStore(catalogmemory.NewRepository()))
	return &Components{Orders: orders, persistent: persistent}
}

func TestSelectOrderWorkflows_MemoryStoresStayInline(t *testing.T) {
	var logs bytes.Buffer
	dialled := 0
	orchestrator, closeFn := selectOrderWorkflows(testComponents(false), slog.New(slog.NewJSONHandler(&logs, nil)), func() (client.Client, error) {
		dialled++
		return &stubTemporalClient{}, nil
	})
	defer closeFn()

	assert.IsType(t, &ordersworkflows.InlineOrderWorkflows{}, orchestrator)
	assert.Zero(t, dialled)
	assert.Contains(t, logs.String(), "order store is in memory")
}

func TestSelectOrderWorkflows_PersistentStoresUseTemporal(t *testing.T) {
	stub := &stubTemporalClient{}
	orchestrator, closeFn := selectOrderWorkflows(testComponents(true), slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), func() (client.Client, error) {
		return stub, nil
	})

	assert.IsType(t, &ordersworkflows.TemporalOrderWorkflows{}, orchestrator)
	closeFn()
	assert.True(t, stub.closed)
}

func TestSelectOrderWorkflows_UnreachableTemporalFallsBackInline(t *testing.T) {
	orchestrator, closeFn := selectOrderWorkflows(testComponents(true), slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), func() (client.Client, error) {
		return nil, errors.New("connection refused")
	})
	defer closeFn()
	assert.IsType(t, &ordersworkflows.InlineOrderWorkflows{}, orchestrator)
}

func TestWorkerRequiresPersistentStores(t *testing.T) {
	require.ErrorIs(t, testComponents(false).requirePersistent(), errMemoryStore)
	require.NoError(t, testComponents(true).requirePersistent())

	var missing *Components
	require.False(t, missing.Persistent())
}
