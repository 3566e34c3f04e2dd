package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hwmart-pos/pos-service/internal/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const goodsReceivedTopic = "goods-received-events"

// GoodsReceivedConsumer는 구매 시스템의 입고 이벤트를 받아 재고 원장에 가산한다.
type GoodsReceivedConsumer struct {
	reader    *kafka.Reader
	inventory *service.InventoryService
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewGoodsReceivedConsumer(brokers string, groupID string, inventory *service.InventoryService, logger *zap.Logger) *GoodsReceivedConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		GroupID:  groupID,
		Topic:    goodsReceivedTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	ctx, cancel := context.WithCancel(context.Background())

	return &GoodsReceivedConsumer{
		reader:    reader,
		inventory: inventory,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (gc *GoodsReceivedConsumer) Start() {
	gc.logger.Info("Goods received consumer started", zap.String("topic", goodsReceivedTopic))
	go gc.consume()
}

func (gc *GoodsReceivedConsumer) consume() {
	defer gc.reader.Close()

	for {
		msg, err := gc.reader.FetchMessage(gc.ctx)
		if err != nil {
			if gc.ctx.Err() != nil {
				gc.logger.Info("Goods received consumer stopped")
				return
			}
			gc.logger.Error("Error reading message", zap.Error(err))
			continue
		}

		if err := gc.processMessage(msg); err != nil {
			gc.logger.Error("Error processing message",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
			continue
		}

		// 메시지 처리 성공 시 커밋
		if err := gc.reader.CommitMessages(gc.ctx, msg); err != nil {
			gc.logger.Error("Error committing message", zap.Error(err))
		}
	}
}

func (gc *GoodsReceivedConsumer) processMessage(msg kafka.Message) error {
	var event GoodsReceivedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	gc.logger.Info("Processing goods received event",
		zap.String("event_id", event.EventID),
		zap.String("reference_no", event.ReferenceNo),
		zap.Int("items_count", len(event.Items)))

	// 입고는 복원과 같은 연산 — 상한 없는 가산
	for _, item := range event.Items {
		result, err := gc.inventory.Restore(gc.ctx, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to add stock for product %s: %w", item.ProductID, err)
		}

		gc.logger.Info("Stock received",
			zap.String("product_id", item.ProductID),
			zap.Int("received", item.Quantity),
			zap.Int("new_stock", result.NewStock),
			zap.String("reference_no", event.ReferenceNo))
	}

	return nil
}

func (gc *GoodsReceivedConsumer) Stop() {
	gc.logger.Info("Stopping goods received consumer")
	gc.cancel()
}
