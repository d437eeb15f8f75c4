package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

// 見つかりませんを統一
var ErrNotFound = errors.New("not found")

type SKURepository interface {
	// IDからSKUを1件取得
	FindByID(ctx context.Context, skuID int64) (model.SKU, error)

	// 複数IDでまとめて取得（カート表示・注文結算用）
	ListByIDs(ctx context.Context, skuIDs []int64) ([]model.SKU, error)

	// 在庫の条件付き減算（CAS）。
	// 「stockが読んだ値のまま」のときだけ stock-=qty / sales+=qty をペアで適用する。
	// 他の注文が先に更新していた場合はfalseが返り、呼び出し側が読み直して再試行する。
	DecrementStockCAS(ctx context.Context, skuID int64, observedStock int64, qty int64) (bool, error)
}
