package repository

import (
	"context"

	"app/internal/domain/model"
)

// 配送先住所の取得窓口。住所CRUD自体は対象外で、注文時の参照だけを約束する。
// 所有チェックは取得した行のUserIDで行う。
type AddressRepository interface {
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
}
