package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartFixture() (*MockCartStore, *MockSKURepository, *usecase.CartUsecase) {
	cart := new(MockCartStore)
	skus := new(MockSKURepository)
	return cart, skus, usecase.NewCartUsecase(cart, skus)
}

// =====================
// ログイン済みカート
// =====================

func TestAddToCart_SameSKUIncrementsQuantity(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)
	cart, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(1)).Return(sku(1, "100.00", 10), nil)

	//すでに3個入っている状態で2個追加
	cart.On("GetQuantities", mock.Anything, userID).Return(map[int64]int64{1: 3}, nil).Once()

	//加算はストア側の契約。上書きのUpdateLineではなくAddが呼ばれること
	cart.On("Add", mock.Anything, userID, int64(1), int64(2), true).Return(nil)

	//追加後の再読込
	cart.On("GetQuantities", mock.Anything, userID).Return(map[int64]int64{1: 5}, nil).Once()
	cart.On("GetSelected", mock.Anything, userID).Return([]int64{1}, nil)
	skus.On("ListByIDs", mock.Anything, []int64{1}).Return([]model.SKU{sku(1, "100.00", 10)}, nil)

	out, err := uc.AddToCart(ctx, userID, usecase.CartLineInput{SKUID: 1, Quantity: 2, Selected: true})
	assert.NoError(t, err)

	if assert.Len(t, out.Lines, 1) {
		assert.Equal(t, int64(5), out.Lines[0].Count)
	}
	assert.Equal(t, int64(5), out.TotalCount)
	assertDecimalEq(t, "500.00", out.TotalAmount)

	cart.AssertExpectations(t)
	cart.AssertNotCalled(t, "UpdateLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 加算後の数量が在庫を超えるなら追加を拒否
func TestAddToCart_RejectsWhenTotalExceedsStock(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)
	cart, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(1)).Return(sku(1, "100.00", 10), nil)
	cart.On("GetQuantities", mock.Anything, userID).Return(map[int64]int64{1: 9}, nil)

	_, err := uc.AddToCart(ctx, userID, usecase.CartLineInput{SKUID: 1, Quantity: 2, Selected: true})
	assertHTTPError(t, err, http.StatusBadRequest, "stock exceeded")

	cart.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 非公開SKUは存在しないのと同じ扱い
func TestAddToCart_InactiveSKU(t *testing.T) {
	ctx := context.Background()
	cart, skus, uc := newCartFixture()

	inactive := sku(1, "100.00", 10)
	inactive.IsActive = false
	skus.On("FindByID", mock.Anything, int64(1)).Return(inactive, nil)

	_, err := uc.AddToCart(ctx, 7, usecase.CartLineInput{SKUID: 1, Quantity: 1, Selected: true})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid")

	cart.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddToCart_UnknownSKU(t *testing.T) {
	ctx := context.Background()
	_, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(999)).Return(model.SKU{}, repo.ErrNotFound)

	_, err := uc.AddToCart(ctx, 7, usecase.CartLineInput{SKUID: 999, Quantity: 1, Selected: true})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid")
}

func TestUpdateCartLine_OverwritesQuantityAndSelection(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)
	cart, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(1)).Return(sku(1, "100.00", 10), nil)
	cart.On("UpdateLine", mock.Anything, userID, int64(1), int64(4), false).Return(nil)

	cart.On("GetQuantities", mock.Anything, userID).Return(map[int64]int64{1: 4}, nil)
	cart.On("GetSelected", mock.Anything, userID).Return([]int64{}, nil)
	skus.On("ListByIDs", mock.Anything, []int64{1}).Return([]model.SKU{sku(1, "100.00", 10)}, nil)

	out, err := uc.UpdateCartLine(ctx, userID, usecase.CartLineInput{SKUID: 1, Quantity: 4, Selected: false})
	assert.NoError(t, err)

	//チェックを外した明細は合計に入らない
	assert.Equal(t, int64(0), out.TotalCount)
	assertDecimalEq(t, "0", out.TotalAmount)

	cart.AssertExpectations(t)
}

// 合計はチェック済み明細だけを数える
func TestGetCart_TotalsCountSelectedOnly(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)
	cart, skus, uc := newCartFixture()

	cart.On("GetQuantities", mock.Anything, userID).Return(map[int64]int64{1: 2, 2: 3}, nil)
	cart.On("GetSelected", mock.Anything, userID).Return([]int64{1}, nil)
	skus.On("ListByIDs", mock.Anything, mock.AnythingOfType("[]int64")).Return([]model.SKU{
		sku(1, "100.00", 10),
		sku(2, "50.00", 10),
	}, nil)

	out, err := uc.GetCart(ctx, userID)
	assert.NoError(t, err)

	assert.Len(t, out.Lines, 2)
	assert.Equal(t, int64(2), out.TotalCount)
	assertDecimalEq(t, "200.00", out.TotalAmount)
}

// =====================
// 未ログインカート
// =====================

func TestAddToAnonCart_SameSKUIncrements(t *testing.T) {
	ctx := context.Background()
	_, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(1)).Return(sku(1, "100.00", 10), nil)

	cart := model.AnonCart{1: {Count: 3, Selected: false}}
	out, err := uc.AddToAnonCart(ctx, cart, usecase.CartLineInput{SKUID: 1, Quantity: 2, Selected: true})
	assert.NoError(t, err)

	//数量は加算、チェック状態は今回の指定で上書き
	assert.Equal(t, int64(5), out[1].Count)
	assert.True(t, out[1].Selected)
}

func TestAddToAnonCart_RejectsWhenTotalExceedsStock(t *testing.T) {
	ctx := context.Background()
	_, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(1)).Return(sku(1, "100.00", 10), nil)

	cart := model.AnonCart{1: {Count: 9, Selected: true}}
	_, err := uc.AddToAnonCart(ctx, cart, usecase.CartLineInput{SKUID: 1, Quantity: 2, Selected: true})
	assertHTTPError(t, err, http.StatusBadRequest, "stock exceeded")
}

func TestUpdateAnonCartLine_Overwrites(t *testing.T) {
	ctx := context.Background()
	_, skus, uc := newCartFixture()

	skus.On("FindByID", mock.Anything, int64(1)).Return(sku(1, "100.00", 10), nil)

	cart := model.AnonCart{1: {Count: 3, Selected: true}}
	out, err := uc.UpdateAnonCartLine(ctx, cart, usecase.CartLineInput{SKUID: 1, Quantity: 1, Selected: false})
	assert.NoError(t, err)

	assert.Equal(t, int64(1), out[1].Count)
	assert.False(t, out[1].Selected)
}

func TestSelectAllAnon(t *testing.T) {
	_, _, uc := newCartFixture()

	cart := model.AnonCart{
		1: {Count: 1, Selected: false},
		2: {Count: 2, Selected: true},
	}

	out := uc.SelectAllAnon(cart, true)
	assert.True(t, out[1].Selected)
	assert.True(t, out[2].Selected)

	out = uc.SelectAllAnon(out, false)
	assert.False(t, out[1].Selected)
	assert.False(t, out[2].Selected)
}

func TestDeleteAnonCartLine(t *testing.T) {
	_, _, uc := newCartFixture()

	cart := model.AnonCart{1: {Count: 1}, 2: {Count: 2}}
	out := uc.DeleteAnonCartLine(cart, 1)

	assert.NotContains(t, out, int64(1))
	assert.Contains(t, out, int64(2))
}
