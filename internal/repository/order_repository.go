package repository

import (
	"context"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) error

	// 確定した合計数量と実付金額を書き戻す
	UpdateTotals(ctx context.Context, orderID string, totalCount int64, totalAmount decimal.Decimal) error
}
