package services

import (
	"context"
	"strings"
	"time"

	"relocation-quote/internal/apperror"
	"relocation-quote/internal/distance"
	"relocation-quote/internal/logger"
	"relocation-quote/internal/models"
	"relocation-quote/internal/pricing"

	"github.com/google/uuid"
)

// SettingsSource отдает активные тарифы, сохранённые оператором.
type SettingsSource interface {
	Active(ctx context.Context) (*pricing.PartialConfig, error)
}

// DistanceResolver считает круговой пробег по адресам.
type DistanceResolver interface {
	ResolveDistance(ctx context.Context, from, to string, depot *distance.Coordinate) (*distance.Result, error)
}

// EventPublisher публикует события расчётов.
type EventPublisher interface {
	PublishQuoteCalculated(quote *models.Quote) error
	PublishDistanceResolved(from, to string, result *distance.Result) error
}

// QuoteService собирает расчёт: активные тарифы, пробег по адресам и движок цены.
type QuoteService struct {
	settings  SettingsSource
	distances DistanceResolver
	publisher EventPublisher
	log       *logger.Logger
}

// NewQuoteService создает сервис расчёта. Любая зависимость может быть nil:
// без settings используются встроенные тарифы, без distances адреса не принимаются.
func NewQuoteService(settings SettingsSource, distances DistanceResolver, publisher EventPublisher, log *logger.Logger) *QuoteService {
	return &QuoteService{
		settings:  settings,
		distances: distances,
		publisher: publisher,
		log:       log,
	}
}

// baseConfig накладывает сохранённые тарифы на встроенные.
// Недоступное хранилище не блокирует расчёт.
func (s *QuoteService) baseConfig(ctx context.Context) pricing.Config {
	if s.settings == nil {
		return pricing.DefaultConfig()
	}
	stored, err := s.settings.Active(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load pricing settings, using defaults")
		return pricing.DefaultConfig()
	}
	return pricing.NormalizeWith(pricing.Defaults(), stored)
}

// Defaults возвращает действующую базовую конфигурацию тарифов.
func (s *QuoteService) Defaults(ctx context.Context) pricing.Config {
	return s.baseConfig(ctx)
}

// CreateQuote считает расчёт по запросу.
// Если заданы оба адреса, пустые km_roundtrip и transport_minutes заполняются по маршруту.
func (s *QuoteService) CreateQuote(ctx context.Context, req *models.CreateQuoteRequest) (*models.Quote, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}

	base := s.baseConfig(ctx)
	job := req.Job

	var route *distance.Result
	from := strings.TrimSpace(req.FromAddress)
	to := strings.TrimSpace(req.ToAddress)
	switch {
	case from == "" && to == "":
	case from == "" || to == "":
		return nil, apperror.Validation("both from_address and to_address are required for routing", nil)
	default:
		var err error
		route, err = s.resolve(ctx, from, to, req.Depot)
		if err != nil {
			return nil, err
		}
		effective := pricing.NormalizeWith(&base, req.Config)
		fillFromRoute(&job, route, effective.TransportMode)
	}

	quote := &models.Quote{
		ID:        uuid.New(),
		Breakdown: pricing.NewEngine(&base).Compute(job, req.Config),
		Distance:  route,
		CreatedAt: time.Now().UTC(),
	}

	s.log.WithFields(map[string]interface{}{
		"quote_id":    quote.ID,
		"crew":        quote.Breakdown.Crew,
		"total_price": quote.Breakdown.Price.Total,
	}).Info("Quote calculated")

	if s.publisher != nil {
		if err := s.publisher.PublishQuoteCalculated(quote); err != nil {
			s.log.WithError(err).WithField("quote_id", quote.ID).Warn("Failed to publish quote event")
		}
	}

	return quote, nil
}

// ResolveDistance считает пробег без расчёта цены.
func (s *QuoteService) ResolveDistance(ctx context.Context, req *models.DistanceRequest) (*distance.Result, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}
	from := strings.TrimSpace(req.From)
	to := strings.TrimSpace(req.To)
	if from == "" || to == "" {
		return nil, apperror.Validation("from and to are required", nil)
	}
	return s.resolve(ctx, from, to, req.Depot)
}

func (s *QuoteService) resolve(ctx context.Context, from, to string, depot *distance.Coordinate) (*distance.Result, error) {
	if s.distances == nil {
		return nil, apperror.Unavailable("distance calculation is not configured", nil)
	}

	result, err := s.distances.ResolveDistance(ctx, from, to, depot)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDistanceResolved(from, to, result); err != nil {
			s.log.WithError(err).Warn("Failed to publish distance event")
		}
	}
	return result, nil
}

// fillFromRoute дополняет пустые поля маршрута. Явно заданные клиентом значения не трогаются.
// При режиме от прибытия в пути считается только плечо откуда → куда.
func fillFromRoute(job *pricing.JobInput, route *distance.Result, mode pricing.TransportMode) {
	if job.KmRoundtrip.Float() <= 0 {
		job.KmRoundtrip = pricing.Number(route.TotalKm)
	}
	if job.TransportMinutes.Float() <= 0 {
		minutes := route.TotalMinutes
		if mode == pricing.TransportTimeFromArrival {
			minutes = route.LegMinutes[distance.LegOriginToDestination]
		}
		job.TransportMinutes = pricing.Number(minutes)
	}
}
