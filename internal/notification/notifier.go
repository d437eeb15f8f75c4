package notification

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"app/internal/domain/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// 注文確定イベント。通知側（メール・SMS等のコンシューマ）が購読する。
type OrderPlacedEvent struct {
	EventID     string    `json:"event_id"`
	OrderID     string    `json:"order_id"`
	UserID      int64     `json:"user_id"`
	TotalAmount string    `json:"total_amount"`
	PlacedAt    time.Time `json:"placed_at"`
}

// KafkaNotifier は注文イベントをKafkaへ投げる。
// 送信は非同期のfire-and-forgetで、注文処理は結果を待たない。
type KafkaNotifier struct {
	writer *kafka.Writer
}

// brokersCSVが空ならnilを返す（通知なしで動く）。
func NewKafkaNotifier(brokersCSV string, topic string) *KafkaNotifier {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaNotifier{writer: writer}
}

func (n *KafkaNotifier) OrderPlaced(order model.Order) {
	event := OrderPlacedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.String(),
		PlacedAt:    order.CreatedAt,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("order event marshal failed: order=%s err=%v", order.ID, err)
			return
		}

		err = n.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(order.ID),
			Value: data,
			Time:  time.Now().UTC(),
		})
		if err != nil {
			// 通知は取りこぼしてよい。注文自体はコミット済み。
			log.Printf("order event publish failed: order=%s err=%v", order.ID, err)
		}
	}()
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
