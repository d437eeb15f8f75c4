package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func placedOrder(id string, userID int64) model.Order {
	return model.Order{
		ID:          id,
		UserID:      userID,
		AddressID:   77,
		PayMethod:   model.PayMethodOnline,
		Status:      model.OrderStatusUnpaid,
		TotalCount:  2,
		TotalAmount: decimal.RequireFromString("210.00"),
		Freight:     decimal.RequireFromString("10.00"),
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestListMyOrders(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)

	orders := new(MockOrderRepository)
	items := new(MockOrderItemRepository)

	o := placedOrder("202601020304050000000007", userID)
	orders.On("ListByUserID", mock.Anything, userID, 1, 50).Return([]model.Order{o}, int64(1), nil)
	items.On("ListByOrderID", mock.Anything, o.ID).Return([]model.OrderItem{
		{OrderID: o.ID, SKUID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
	}, nil)

	uc := usecase.NewOrderUsecase(orders, items)

	out, err := uc.ListMyOrders(ctx, userID)
	assert.NoError(t, err)

	if assert.Len(t, out, 1) {
		assert.Equal(t, o.ID, out[0].ID)
		assert.Len(t, out[0].Items, 1)
		assertDecimalEq(t, "210.00", out[0].TotalAmount)
	}
}

func TestGetMyOrderDetail_OwnOrder(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)

	orders := new(MockOrderRepository)
	items := new(MockOrderItemRepository)

	o := placedOrder("202601020304050000000007", userID)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	items.On("ListByOrderID", mock.Anything, o.ID).Return([]model.OrderItem{
		{OrderID: o.ID, SKUID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
	}, nil)

	uc := usecase.NewOrderUsecase(orders, items)

	out, err := uc.GetMyOrderDetail(ctx, userID, o.ID)
	assert.NoError(t, err)
	assert.Equal(t, o.ID, out.ID)
	assert.Equal(t, userID, out.UserID)
}

// 他人の注文は存在しない扱い
func TestGetMyOrderDetail_OthersOrderIsNotFound(t *testing.T) {
	ctx := context.Background()

	orders := new(MockOrderRepository)
	items := new(MockOrderItemRepository)

	o := placedOrder("202601020304050000000099", 99)
	orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	uc := usecase.NewOrderUsecase(orders, items)

	_, err := uc.GetMyOrderDetail(ctx, 7, o.ID)
	assertHTTPError(t, err, http.StatusNotFound, "not found")

	items.AssertNotCalled(t, "ListByOrderID", mock.Anything, mock.Anything)
}

func TestGetMyOrderDetail_UnknownOrder(t *testing.T) {
	ctx := context.Background()

	orders := new(MockOrderRepository)
	items := new(MockOrderItemRepository)

	orders.On("FindByID", mock.Anything, "missing").Return(model.Order{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(orders, items)

	_, err := uc.GetMyOrderDetail(ctx, 7, "missing")
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}
