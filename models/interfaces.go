package models

import "context"

type IndicatorFetcher interface {
	Name() string
	Fetch(ctx context.Context) (Series, error)
}

type PriceFetcher interface {
	Price(ctx context.Context) (float64, error)
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
