package handlers

import (
	"context"

	"relocation-quote/internal/distance"
	"relocation-quote/internal/models"
	"relocation-quote/internal/pricing"
)

// ----- Quotes -----

type QuoteService interface {
	CreateQuote(ctx context.Context, req *models.CreateQuoteRequest) (*models.Quote, error)
	ResolveDistance(ctx context.Context, req *models.DistanceRequest) (*distance.Result, error)
	Defaults(ctx context.Context) pricing.Config
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
