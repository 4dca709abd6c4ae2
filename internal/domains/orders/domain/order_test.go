package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newPendingOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("0f8fad5b-d9cb-469f-a165-70867728950e", "u1", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, order.AddLine("l1", "p1", "Keyboard", 2, decimal.RequireFromString("10.50")))
	require.NoError(t, order.AddLine("l2", "p2", "Mouse", 1, decimal.RequireFromString("4.25")))
	require.NoError(t, order.Place())
	return order
}

func TestOrderNumber_Format(t *testing.T) {
	at := time.Date(2025, 12, 31, 23, 59, 1, 0, time.FixedZone("CET", 3600))
	require.Equal(t, "ORD-20251231225901-0f8fad5b", OrderNumber("0f8fad5b-d9cb-469f-a165-70867728950e", at))
	require.Equal(t, "ORD-20251231225901-abc", OrderNumber("abc", at))
}

func TestNewOrder_StartsPending(t *testing.T) {
	order := newPendingOrder(t)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, "ORD-20250102030405-0f8fad5b", order.Number)
	require.True(t, decimal.RequireFromString("25.25").Equal(order.Total))
	require.True(t, order.Total.Equal(order.CalculateTotal()))
	require.Len(t, order.Events(), 1)
	require.Equal(t, "orders.order.placed", order.Events()[0].EventName())

	_, err := NewOrder("id", " ", time.Now())
	require.ErrorIs(t, err, ErrEmptyUserID)
}

func TestPlace_RejectsEmptyOrTamperedOrders(t *testing.T) {
	order, err := NewOrder("id", "u1", time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, order.Place(), ErrEmptyCart)

	require.NoError(t, order.AddLine("l1", "p1", "Keyboard", 1, decimal.NewFromInt(3)))
	order.Total = decimal.NewFromInt(1)
	require.ErrorIs(t, order.Place(), ErrTotalMismatch)
}

func TestAddLine_Validates(t *testing.T) {
	order, err := NewOrder("id", "u1", time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, order.AddLine("l1", "", "x", 1, decimal.Zero), ErrEmptyProductID)
	require.ErrorIs(t, order.AddLine("l1", "p1", "x", 0, decimal.Zero), ErrInvalidQuantity)
}

func TestLifecycle_Transitions(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("cancel from pending", func(t *testing.T) {
		order := newPendingOrder(t)
		order.ClearEvents()
		require.NoError(t, order.Cancel(now))
		require.Equal(t, StatusCancelled, order.Status)
		require.Equal(t, now, order.UpdatedAt)
		evt, ok := order.Events()[0].(OrderCancelled)
		require.True(t, ok)
		require.Len(t, evt.Restored, 2)
	})

	t.Run("pay from pending", func(t *testing.T) {
		order := newPendingOrder(t)
		require.NoError(t, order.MarkPaid(now))
		require.Equal(t, StatusPaid, order.Status)
	})

	for _, from := range []Status{StatusPaid, StatusCancelled, StatusShipped, StatusDelivered, StatusCompleted} {
		t.Run("cancel refused from "+string(from), func(t *testing.T) {
			order := newPendingOrder(t)
			order.Status = from
			err := order.Cancel(now)
			require.ErrorIs(t, err, ErrInvalidTransition)
			var transition *TransitionError
			require.True(t, errors.As(err, &transition))
			require.Equal(t, "cancel", transition.Operation)
			require.Equal(t, from, transition.From)
			require.Equal(t, from, order.Status)
		})
	}
}

func TestDelete_OnlyFinishedOrders(t *testing.T) {
	cases := map[Status]bool{
		StatusPending:   false,
		StatusPaid:      false,
		StatusShipped:   false,
		StatusDelivered: false,
		StatusCancelled: true,
		StatusCompleted: true,
	}
	for status, allowed := range cases {
		order := newPendingOrder(t)
		order.Status = status
		require.Equal(t, allowed, order.Deletable(), status)
		err := order.Delete(time.Now())
		if allowed {
			require.NoError(t, err, status)
		} else {
			require.ErrorIs(t, err, ErrInvalidTransition, status)
		}
	}
}

func TestOverrideStatus_AnyToAny(t *testing.T) {
	order := newPendingOrder(t)
	order.ClearEvents()
	require.NoError(t, order.OverrideStatus(StatusDelivered, time.Now()))
	require.NoError(t, order.OverrideStatus(StatusPending, time.Now()))
	require.ErrorIs(t, order.OverrideStatus(Status("LOST"), time.Now()), ErrInvalidStatus)
	require.Equal(t, StatusPending, order.Status)

	events := order.Events()
	require.Len(t, events, 2)
	changed := events[0].(OrderStatusChanged)
	require.Equal(t, StatusPending, changed.From)
	require.Equal(t, StatusDelivered, changed.To)
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" shipped ")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, status)

	_, err = ParseStatus("teleported")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestClone_IsIndependent(t *testing.T) {
	order := newPendingOrder(t)
	clone := order.Clone()
	clone.Items[0].Quantity = 99
	require.Equal(t, 2, order.Items[0].Quantity)
	require.Empty(t, clone.Events())
	require.Nil(t, (*Order)(nil).Clone())
}
