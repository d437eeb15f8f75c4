package repository

import (
	"context"

	"app/internal/domain/model"
)

// ログイン済みユーザーのカート置き場（Redis）。
// 数量はhash（skuID→count）、チェック状態はset（skuIDの集合）で持つ。
type CartStore interface {
	// カート内の全skuIDと数量
	GetQuantities(ctx context.Context, userID int64) (map[int64]int64, error)

	// チェックされているskuIDの集合
	GetSelected(ctx context.Context, userID int64) ([]int64, error)

	// カートに追加。同一商品は数量を加算する（上書きしない）。
	Add(ctx context.Context, userID int64, skuID int64, qty int64, selected bool) error

	// 数量とチェック状態を上書き
	UpdateLine(ctx context.Context, userID int64, skuID int64, qty int64, selected bool) error

	// 指定skuを数量hashとチェックsetの両方から取り除く
	Remove(ctx context.Context, userID int64, skuIDs []int64) error

	// 全選択／全解除
	SelectAll(ctx context.Context, userID int64, selected bool) error

	// 未ログインカートの取り込み。
	// 数量は上書き、チェック状態も未ログイン側を正とする。
	Merge(ctx context.Context, userID int64, anon model.AnonCart) error
}
