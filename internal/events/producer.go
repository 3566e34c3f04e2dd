package events

import (
    "context"
    "encoding/json"
    "time"

    "github.com/google/uuid"
    "github.com/hwmart-pos/pos-service/internal/domain"
    "github.com/segmentio/kafka-go"
    "go.uber.org/zap"
)

const (
    saleTopic  = "sale-events"
    stockTopic = "stock-events"
)

// KafkaProducer는 service.EventPublisher 구현.
type KafkaProducer struct {
    saleWriter  *kafka.Writer
    stockWriter *kafka.Writer
    logger      *zap.Logger
}

func NewKafkaProducer(brokers string, logger *zap.Logger) *KafkaProducer {
    newWriter := func(topic string) *kafka.Writer {
        return &kafka.Writer{
            Addr:         kafka.TCP(brokers),
            Topic:        topic,
            Balancer:     &kafka.LeastBytes{},
            BatchTimeout: 10 * time.Millisecond,
        }
    }

    return &KafkaProducer{
        saleWriter:  newWriter(saleTopic),
        stockWriter: newWriter(stockTopic),
        logger:      logger,
    }
}

func (p *KafkaProducer) PublishSalePosted(sale *domain.Sale) error {
    event := SalePostedEvent{
        EventID:       uuid.NewString(),
        InvoiceNumber: sale.InvoiceNumber,
        GrandTotal:    sale.GrandTotal,
        PaymentMethod: string(sale.PaymentMethod),
        Items:         saleItemEvents(sale),
        StockStatus:   string(sale.StockStatus),
        SoldBy:        sale.SoldBy,
        Timestamp:     time.Now(),
    }
    return p.publish(p.saleWriter, event.EventID, event)
}

func (p *KafkaProducer) PublishSaleRefunded(sale *domain.Sale) error {
    event := SaleRefundedEvent{
        EventID:       uuid.NewString(),
        InvoiceNumber: sale.InvoiceNumber,
        Items:         saleItemEvents(sale),
        Timestamp:     time.Now(),
    }
    return p.publish(p.saleWriter, event.EventID, event)
}

func (p *KafkaProducer) PublishReconciliationRequired(invoiceNumber string, productIDs []string) error {
    event := ReconciliationRequiredEvent{
        EventID:       uuid.NewString(),
        InvoiceNumber: invoiceNumber,
        ProductIDs:    productIDs,
        Timestamp:     time.Now(),
    }
    return p.publish(p.stockWriter, event.EventID, event)
}

func (p *KafkaProducer) publish(writer *kafka.Writer, eventID string, event interface{}) error {
    eventBytes, err := json.Marshal(event)
    if err != nil {
        p.logger.Error("Failed to marshal event", zap.Error(err))
        return err
    }

    msg := kafka.Message{
        Key:   []byte(eventID),
        Value: eventBytes,
    }

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if err := writer.WriteMessages(ctx, msg); err != nil {
        p.logger.Error("Failed to publish message",
            zap.String("event_id", eventID),
            zap.String("topic", writer.Topic),
            zap.Error(err))
        return err
    }

    p.logger.Info("Event published successfully",
        zap.String("event_id", eventID),
        zap.String("topic", writer.Topic))

    return nil
}

func saleItemEvents(sale *domain.Sale) []SaleItemEvent {
    items := make([]SaleItemEvent, 0, len(sale.Items))
    for _, item := range sale.Items {
        items = append(items, SaleItemEvent{
            ProductID:   item.ProductID,
            ProductName: item.ProductName,
            Quantity:    item.Quantity,
        })
    }
    return items
}

func (p *KafkaProducer) Close() error {
    if err := p.saleWriter.Close(); err != nil {
        return err
    }
    return p.stockWriter.Close()
}
