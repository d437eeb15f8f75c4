package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type SKUGormRepository struct {
	db *gorm.DB
}

// DI
func NewSKUGormRepository(db *gorm.DB) *SKUGormRepository {
	return &SKUGormRepository{db: db}
}

func (r *SKUGormRepository) FindByID(ctx context.Context, skuID int64) (model.SKU, error) {
	var sku model.SKU

	err := r.db.WithContext(ctx).Where("id = ?", skuID).First(&sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.SKU{}, repo.ErrNotFound
	}
	if err != nil {
		return model.SKU{}, err
	}
	return sku, nil
}

func (r *SKUGormRepository) ListByIDs(ctx context.Context, skuIDs []int64) ([]model.SKU, error) {
	var skus []model.SKU

	if len(skuIDs) == 0 {
		return []model.SKU{}, nil
	}

	if err := r.db.WithContext(ctx).
		Where("id IN ?", skuIDs).
		Order("id asc").
		Find(&skus).Error; err != nil {
		return []model.SKU{}, err
	}

	return skus, nil
}

// 在庫の条件付き減算（CAS）。
// WHEREに「stockが読んだ値のまま」という条件を入れ、stockとsalesをペアで更新する。
// 行ロックを業務処理の間ずっと持ち続けないための作り。
func (r *SKUGormRepository) DecrementStockCAS(ctx context.Context, skuID int64, observedStock int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SKU{}).
		Where("id = ? AND stock = ?", skuID, observedStock).
		Updates(map[string]interface{}{
			"stock": gorm.Expr("stock - ?", qty),
			"sales": gorm.Expr("sales + ?", qty),
		})

	if res.Error != nil {
		return false, res.Error
	}

	// 0行更新＝他の注文が先に在庫を動かした。読み直して再試行する合図であり、異常ではない。
	return res.RowsAffected > 0, nil
}
