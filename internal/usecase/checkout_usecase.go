package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"app/internal/domain/model"
	"app/internal/metrics"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// 1明細あたりの条件付きUPDATEの試行上限。
// 競合が一時的なら収束し、競合し続けた場合の待ち時間もここで頭打ちになる。
const checkoutMaxAttempts = 3

var (
	// チェック済みの明細が1つもない（前提条件の不成立であり障害ではない）
	ErrCartEmpty = errors.New("cart empty")

	// 在庫不足。数量を減らすか明細を外せば再注文できる
	ErrInsufficientStock = errors.New("insufficient stock")

	// 競合超過または予期しない失敗。そのまま再試行してよい
	ErrCheckoutFailed = errors.New("checkout failed")
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 注文確定イベントの通知。呼び出し側は結果を待たない。
type OrderNotifier interface {
	OrderPlaced(order model.Order)
}

// CheckoutUsecase は注文確定の本体。
// Redisカートのチェック済み明細をRDBの在庫・注文へ1トランザクションで突き合わせる。
type CheckoutUsecase struct {
	tx        repo.TransactionManager
	cart      repo.CartStore
	skuRepo   repo.SKURepository
	addresses repo.AddressRepository
	clock     Clock
	freight   decimal.Decimal
	notifier  OrderNotifier            // nilなら通知なし
	metrics   *metrics.CheckoutMetrics // nil可
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	cart repo.CartStore,
	skuRepo repo.SKURepository,
	addresses repo.AddressRepository,
	clock Clock,
	freight decimal.Decimal,
	notifier OrderNotifier,
	m *metrics.CheckoutMetrics,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:        tx,
		cart:      cart,
		skuRepo:   skuRepo,
		addresses: addresses,
		clock:     clock,
		freight:   freight,
		notifier:  notifier,
		metrics:   m,
	}
}

type PlaceOrderInput struct {
	AddressID int64
	PayMethod model.PayMethod
}

type OrderItemOutput struct {
	SKUID    int64  `json:"sku_id"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type OrderOutput struct {
	ID          string            `json:"id"`
	UserID      int64             `json:"user_id"`
	Status      string            `json:"status"`
	PayMethod   string            `json:"pay_method"`
	TotalCount  int64             `json:"total_count"`
	TotalAmount string            `json:"total_amount"`
	Freight     string            `json:"freight"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

// 注文IDは「秒精度の時刻＋ゼロ埋めユーザーID」。
// 採番サーバ無しでユーザーごとに一意になるが、同一ユーザーが
// 同一秒内に2回注文すると衝突する。既知の制約として明記しておく。
func newOrderID(now time.Time, userID int64) string {
	return now.Format("20060102150405") + fmt.Sprintf("%010d", userID)
}

// PlaceOrder はチェック済みのカート明細すべてを注文に変換する。
// 全明細が確定するか、全体が失敗してカートも在庫も元のままか、のどちらかになる。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	var out OrderOutput

	if userID <= 0 {
		return out, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		return out, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	}
	if in.PayMethod != model.PayMethodCash && in.PayMethod != model.PayMethodOnline {
		return out, NewHTTPError(http.StatusBadRequest, "invalid pay_method")
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return out, NewHTTPError(http.StatusNotFound, "not found")
		}
		return out, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if addr.UserID != userID {
		return out, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	//チェック済みskuと数量をカートから読む。
	//カートは引数で渡さずここで読む＝読み取りと注文書き込みを1つの操作として扱う。
	skuIDs, quantities, err := u.selectedLines(ctx, userID)
	if err != nil {
		return out, NewHTTPError(http.StatusInternalServerError, "cart error")
	}
	if len(skuIDs) == 0 {
		return out, NewHTTPError(http.StatusBadRequest, ErrCartEmpty.Error())
	}

	now := u.clock.Now()
	order := model.Order{
		ID:          newOrderID(now, userID),
		UserID:      userID,
		AddressID:   in.AddressID,
		PayMethod:   in.PayMethod,
		Status:      model.InitialOrderStatus(in.PayMethod),
		TotalCount:  0,
		TotalAmount: decimal.Zero,
		Freight:     u.freight,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var totalCount int64
	totalAmount := decimal.Zero
	items := make([]model.OrderItem, 0, len(skuIDs))

	//注文ヘッダ作成→明細ごとのCASループ→合計確定までを1トランザクションで行う。
	//途中で失敗したら、それまでに成功した減算ごと全部ロールバックされる。
	txErr := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, skuID := range skuIDs {
			qty := quantities[skuID]

			item, attempts, err := u.reserveLine(ctx, r, order.ID, skuID, qty, now)
			//打ち切り・失敗も含めて、行った試行の数はそのまま記録する
			if attempts > 0 {
				u.metrics.ObserveCASAttempts(attempts)
			}
			if err != nil {
				return err
			}

			items = append(items, item)
			totalCount += qty
			totalAmount = totalAmount.Add(item.Price.Mul(decimal.NewFromInt(qty)))
		}

		//実付款＝商品合計＋運賃
		totalAmount = totalAmount.Add(u.freight)
		return r.Orders().UpdateTotals(ctx, order.ID, totalCount, totalAmount)
	})

	if txErr != nil {
		switch {
		case errors.Is(txErr, ErrInsufficientStock):
			u.metrics.CountOutcome("insufficient_stock")
			return out, NewHTTPError(http.StatusBadRequest, ErrInsufficientStock.Error())
		case errors.Is(txErr, ErrCheckoutFailed):
			u.metrics.CountOutcome("conflict")
			return out, NewHTTPError(http.StatusConflict, ErrCheckoutFailed.Error())
		default:
			//予期しない失敗もロールバック済みなのでCheckoutFailed扱い
			u.metrics.CountOutcome("error")
			return out, NewHTTPError(http.StatusConflict, ErrCheckoutFailed.Error())
		}
	}

	//コミット後にだけカートを掃除する。失敗しても注文は確定済みで、
	//残った明細は見た目の不整合にすぎないためログだけ残す。
	if err := u.cart.Remove(ctx, userID, skuIDs); err != nil {
		log.Printf("cart cleanup failed: user=%d order=%s err=%v", userID, order.ID, err)
	}

	order.TotalCount = totalCount
	order.TotalAmount = totalAmount

	if u.notifier != nil {
		u.notifier.OrderPlaced(order)
	}
	u.metrics.CountOutcome("committed")

	return toOrderOutput(order, items), nil
}

// reserveLineは1明細ぶんの在庫を条件付きUPDATEで確保し、明細行を作る。
// attemptsは成否に関わらず実際に行った条件付きUPDATEの回数。
func (u *CheckoutUsecase) reserveLine(ctx context.Context, r repo.TxRepos, orderID string, skuID int64, qty int64, now time.Time) (model.OrderItem, int, error) {
	for i := 1; i <= checkoutMaxAttempts; i++ {
		sku, err := r.SKUs().FindByID(ctx, skuID)
		if err != nil {
			return model.OrderItem{}, i - 1, err
		}

		//在庫不足は再試行しても直らないので即中断
		if qty > sku.Stock {
			return model.OrderItem{}, i - 1, ErrInsufficientStock
		}

		ok, err := r.SKUs().DecrementStockCAS(ctx, skuID, sku.Stock, qty)
		if err != nil {
			return model.OrderItem{}, i, err
		}
		if !ok {
			//他の注文が先に在庫を動かした。読み直して再試行。
			continue
		}

		//価格はCASが成立した時点のものを記録する
		item := model.OrderItem{
			OrderID:   orderID,
			SKUID:     skuID,
			Quantity:  qty,
			Price:     sku.Price,
			CreatedAt: now,
		}
		if err := r.OrderItems().Create(ctx, item); err != nil {
			return model.OrderItem{}, i, err
		}
		return item, i, nil
	}

	return model.OrderItem{}, checkoutMaxAttempts, ErrCheckoutFailed
}

// チェック済みskuのIDと数量を返す。IDは昇順で安定させる。
func (u *CheckoutUsecase) selectedLines(ctx context.Context, userID int64) ([]int64, map[int64]int64, error) {
	selected, err := u.cart.GetSelected(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	quantities, err := u.cart.GetQuantities(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(selected))
	for _, id := range selected {
		if quantities[id] > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, quantities, nil
}

type SettlementLine struct {
	SKUID int64  `json:"sku_id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Count int64  `json:"count"`
}

type SettlementOutput struct {
	Freight string           `json:"freight"`
	Lines   []SettlementLine `json:"lines"`
}

// GetSettlement は注文確認画面用に、チェック済み明細と運賃を返す。
func (u *CheckoutUsecase) GetSettlement(ctx context.Context, userID int64) (SettlementOutput, error) {
	var out SettlementOutput

	if userID <= 0 {
		return out, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	skuIDs, quantities, err := u.selectedLines(ctx, userID)
	if err != nil {
		return out, NewHTTPError(http.StatusInternalServerError, "cart error")
	}

	skus, err := u.skuRepo.ListByIDs(ctx, skuIDs)
	if err != nil {
		return out, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	lines := make([]SettlementLine, 0, len(skus))
	for _, sku := range skus {
		lines = append(lines, SettlementLine{
			SKUID: sku.ID,
			Name:  sku.Name,
			Price: sku.Price.String(),
			Count: quantities[sku.ID],
		})
	}

	out.Freight = u.freight.String()
	out.Lines = lines
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			SKUID:    it.SKUID,
			Price:    it.Price.String(),
			Quantity: it.Quantity,
		})
	}

	return OrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		PayMethod:   string(o.PayMethod),
		TotalCount:  o.TotalCount,
		TotalAmount: o.TotalAmount.String(),
		Freight:     o.Freight.String(),
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
