package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusUnpaid     OrderStatus = "UNPAID"     // 支払い待ち
	OrderStatusUnsent     OrderStatus = "UNSENT"     // 発送待ち
	OrderStatusUnreceived OrderStatus = "UNRECEIVED" // 受け取り待ち
	OrderStatusFinished   OrderStatus = "FINISHED"   // 完了
	OrderStatusCanceled   OrderStatus = "CANCELED"   // キャンセル済み
)

type PayMethod string

const (
	PayMethodCash   PayMethod = "CASH"   // 代金引換
	PayMethodOnline PayMethod = "ONLINE" // 事前決済
)

// 注文ヘッダ。
// IDは「注文時刻(秒)＋ユーザーID」で決定的に生成する。
// 同一ユーザーが同一秒内に2回注文するとIDが衝突する既知の制約がある。
type Order struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	AddressID   int64           `gorm:"not null" json:"address_id"`
	PayMethod   PayMethod       `gorm:"type:varchar(20);not null" json:"pay_method"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalCount  int64           `gorm:"not null" json:"total_count"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Freight     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"freight"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 支払い方法に応じた注文の初期状態。
// 代金引換は発送待ちから、事前決済は支払い待ちから始まる。
func InitialOrderStatus(pm PayMethod) OrderStatus {
	if pm == PayMethodCash {
		return OrderStatusUnsent
	}
	return OrderStatusUnpaid
}
