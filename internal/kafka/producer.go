package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"relocation-quote/internal/config"
	"relocation-quote/internal/distance"
	"relocation-quote/internal/logger"
	"relocation-quote/internal/models"

	"github.com/IBM/sarama"
)

// Producer публикует доменные события в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронного продюсера
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Timeout = 5 * time.Second
	saramaConfig.Metadata.Retry.Max = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	topics := cfg.Topics
	return &Producer{
		producer: producer,
		log:      log,
		topics:   &topics,
	}, nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// publishEvent сериализует событие и отправляет его в topic
func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", event.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}

// PublishQuoteCalculated публикует итог расчёта
func (p *Producer) PublishQuoteCalculated(quote *models.Quote) error {
	data := map[string]interface{}{
		"quote_id":    quote.ID,
		"volume_m3":   quote.Breakdown.VolumeM3,
		"crew":        quote.Breakdown.Crew,
		"final_hours": quote.Breakdown.Time.LaborHours,
		"subtotal":    quote.Breakdown.Price.Subtotal,
		"vat_amount":  quote.Breakdown.Price.VAT,
		"total_price": quote.Breakdown.Price.Total,
	}
	if quote.Distance != nil {
		data["total_km"] = quote.Distance.TotalKm
	}
	return p.publishEvent(p.topics.Quotes, models.NewEvent(models.EventTypeQuoteCalculated, data))
}

// PublishDistanceResolved публикует рассчитанный пробег
func (p *Producer) PublishDistanceResolved(from, to string, result *distance.Result) error {
	data := map[string]interface{}{
		"from":          from,
		"to":            to,
		"total_km":      result.TotalKm,
		"leg_km":        result.LegKm,
		"total_minutes": result.TotalMinutes,
	}
	return p.publishEvent(p.topics.Quotes, models.NewEvent(models.EventTypeDistanceResolved, data))
}
