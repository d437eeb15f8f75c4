package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	SKUs() SKURepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら全体がロールバックされる（部分コミットはしない）。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
