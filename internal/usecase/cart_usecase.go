package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase はカートの業務ロジック。
// ログイン済みはRedis、未ログインはクライアント側トークン（AnonCart）を操作する。
type CartUsecase struct {
	cart    repo.CartStore
	skuRepo repo.SKURepository
}

func NewCartUsecase(cart repo.CartStore, skuRepo repo.SKURepository) *CartUsecase {
	return &CartUsecase{cart: cart, skuRepo: skuRepo}
}

type CartLineResponse struct {
	SKUID    int64  `json:"sku_id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Count    int64  `json:"count"`
	Selected bool   `json:"selected"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	//チェック済み明細だけの合計
	TotalCount  int64  `json:"total_count"`
	TotalAmount string `json:"total_amount"`
}

type CartLineInput struct {
	SKUID    int64
	Quantity int64
	Selected bool
}

// 追加・変更対象のSKUを検証して返す（存在・公開・在庫上限）
func (u *CartUsecase) validateSKU(ctx context.Context, skuID int64, qty int64) (model.SKU, error) {
	if skuID <= 0 {
		return model.SKU{}, NewHTTPError(http.StatusBadRequest, "invalid sku_id")
	}
	if qty < 1 {
		return model.SKU{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	sku, err := u.skuRepo.FindByID(ctx, skuID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.SKU{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return model.SKU{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !sku.IsActive {
		return model.SKU{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if qty > sku.Stock {
		return model.SKU{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	return sku, nil
}

// カートの行集合からレスポンスを組み立てる。
// SKU本体とカート側の数量・選択状態は別の値として突き合わせる。
func (u *CartUsecase) buildCartResponse(ctx context.Context, quantities map[int64]int64, selected map[int64]bool) (CartResponse, error) {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}

	skus, err := u.skuRepo.ListByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	lines := make([]CartLineResponse, 0, len(skus))
	var totalCount int64
	totalAmount := decimal.Zero

	for _, sku := range skus {
		line := model.CartLine{
			SKU:      sku,
			Count:    quantities[sku.ID],
			Selected: selected[sku.ID],
		}

		lines = append(lines, CartLineResponse{
			SKUID:    line.SKU.ID,
			Name:     line.SKU.Name,
			Price:    line.SKU.Price.String(),
			Count:    line.Count,
			Selected: line.Selected,
		})

		if line.Selected {
			totalCount += line.Count
			totalAmount = totalAmount.Add(line.SKU.Price.Mul(decimal.NewFromInt(line.Count)))
		}
	}

	return CartResponse{
		Lines:       lines,
		TotalCount:  totalCount,
		TotalAmount: totalAmount.String(),
	}, nil
}

// =====================
// ログイン済み（Redis）
// =====================

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	quantities, err := u.cart.GetQuantities(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}
	selectedIDs, err := u.cart.GetSelected(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	selected := make(map[int64]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	return u.buildCartResponse(ctx, quantities, selected)
}

// 同一商品は数量加算
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in CartLineInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	sku, err := u.validateSKU(ctx, in.SKUID, in.Quantity)
	if err != nil {
		return CartResponse{}, err
	}

	//加算後の数量が在庫を超えないか
	quantities, err := u.cart.GetQuantities(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}
	if quantities[in.SKUID]+in.Quantity > sku.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cart.Add(ctx, userID, in.SKUID, in.Quantity, in.Selected); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.GetCart(ctx, userID)
}

// 数量とチェック状態を上書き
func (u *CartUsecase) UpdateCartLine(ctx context.Context, userID int64, in CartLineInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if _, err := u.validateSKU(ctx, in.SKUID, in.Quantity); err != nil {
		return CartResponse{}, err
	}

	if err := u.cart.UpdateLine(ctx, userID, in.SKUID, in.Quantity, in.Selected); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) DeleteCartLine(ctx context.Context, userID int64, skuID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if skuID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid sku_id")
	}

	if err := u.cart.Remove(ctx, userID, []int64{skuID}); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) SelectAll(ctx context.Context, userID int64, selected bool) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.cart.SelectAll(ctx, userID, selected); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	return u.GetCart(ctx, userID)
}

// =====================
// 未ログイン（トークン）
// =====================

func (u *CartUsecase) GetAnonCart(ctx context.Context, cart model.AnonCart) (CartResponse, error) {
	quantities := make(map[int64]int64, len(cart))
	selected := make(map[int64]bool, len(cart))
	for skuID, line := range cart {
		quantities[skuID] = line.Count
		selected[skuID] = line.Selected
	}

	return u.buildCartResponse(ctx, quantities, selected)
}

// 同一商品は数量加算、チェック状態は今回の指定で上書き
func (u *CartUsecase) AddToAnonCart(ctx context.Context, cart model.AnonCart, in CartLineInput) (model.AnonCart, error) {
	sku, err := u.validateSKU(ctx, in.SKUID, in.Quantity)
	if err != nil {
		return nil, err
	}

	line := cart[in.SKUID]
	if line.Count+in.Quantity > sku.Stock {
		return nil, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	line.Count += in.Quantity
	line.Selected = in.Selected
	cart[in.SKUID] = line
	return cart, nil
}

func (u *CartUsecase) UpdateAnonCartLine(ctx context.Context, cart model.AnonCart, in CartLineInput) (model.AnonCart, error) {
	if _, err := u.validateSKU(ctx, in.SKUID, in.Quantity); err != nil {
		return nil, err
	}

	cart[in.SKUID] = model.AnonCartLine{Count: in.Quantity, Selected: in.Selected}
	return cart, nil
}

func (u *CartUsecase) DeleteAnonCartLine(cart model.AnonCart, skuID int64) model.AnonCart {
	delete(cart, skuID)
	return cart
}

func (u *CartUsecase) SelectAllAnon(cart model.AnonCart, selected bool) model.AnonCart {
	for skuID, line := range cart {
		line.Selected = selected
		cart[skuID] = line
	}
	return cart
}
