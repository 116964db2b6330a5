package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alias1177/DCAMailer/internal/analyze"
	"github.com/Alias1177/DCAMailer/internal/metrics"
	"github.com/Alias1177/DCAMailer/internal/report"
	"github.com/Alias1177/DCAMailer/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TextNotifier is a secondary channel that receives the plain-text report
type TextNotifier interface {
	Name() string
	Notify(ctx context.Context, text string) error
}

// MetricsPusher ships the run metrics somewhere once the run is over
type MetricsPusher interface {
	Push(ctx context.Context, m *metrics.Metrics) error
}

// Runner executes fetch -> evaluate -> format -> send once
type Runner struct {
	Fetchers     []models.IndicatorFetcher
	Price        models.PriceFetcher
	Mailer       models.Mailer
	Notifiers    []TextNotifier
	Metrics      *metrics.Metrics
	Pusher       MetricsPusher
	From         string
	To           string
	Subject      string
	LookbackDays int
	Now          func() time.Time

	logger zerolog.Logger
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run performs one complete run. Any fetch failure aborts before the email is built.
func (r *Runner) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	r.logger = log.With().Str("component", "runner").Str("run_id", runID).Logger()
	start := r.now()

	defer func() {
		r.finishMetrics(ctx, start, err)
	}()

	rep, err := r.collect(ctx)
	if err != nil {
		return err
	}

	r.logger.Info().Msg("Formatting email...")
	msg, err := report.Build(rep, r.From, r.To, r.Subject)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}

	r.logger.Info().Str("to", r.To).Msg("Sending email...")
	if err := r.Mailer.Send(ctx, msg); err != nil {
		return err
	}

	for _, n := range r.Notifiers {
		if nerr := n.Notify(ctx, msg.TextBody); nerr != nil {
			r.logger.Warn().Err(nerr).Str("channel", n.Name()).Msg("Secondary notification failed")
		}
	}

	r.logger.Info().
		Int("flashes", rep.FlashCount).
		Int("recommendation_eur", rep.Recommendation).
		Msg("Process completed successfully")
	return nil
}

// collect fetches every indicator and the price, then evaluates them
func (r *Runner) collect(ctx context.Context) (models.Report, error) {
	r.logger.Info().Msg("Fetching Bitcoin indicators...")

	readings := make([]models.IndicatorReading, 0, len(r.Fetchers))
	for _, f := range r.Fetchers {
		series, err := f.Fetch(ctx)
		if err != nil {
			r.logger.Error().Err(err).Str("indicator", f.Name()).Msg("Indicator fetch failed")
			return models.Report{}, err
		}
		if len(series.Points) == 0 {
			return models.Report{}, &models.FetchError{Source: f.Name(), Err: errors.New("no data points")}
		}
		series.Name = f.Name()
		reading := models.NewReading(series)
		r.logger.Info().
			Str("indicator", reading.Name).
			Float64("min", reading.Value).
			Float64("current", reading.Current).
			Str("last_date", reading.LastDate).
			Msg("Fetched indicator")
		readings = append(readings, reading)
	}

	r.logger.Info().Msg("Fetching current BTC price...")
	price, err := r.Price.Price(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Price fetch failed")
		return models.Report{}, err
	}

	eval, err := analyze.EvaluateReadings(readings)
	if err != nil {
		return models.Report{}, err
	}
	amount, err := analyze.Recommendation(eval.FlashCount)
	if err != nil {
		return models.Report{}, err
	}

	rep := models.Report{
		Readings:       readings,
		FlashCount:     eval.FlashCount,
		Flashed:        eval.Flashed(),
		Recommendation: amount,
		BTCPrice:       price,
		LookbackDays:   r.LookbackDays,
		GeneratedAt:    r.now(),
	}
	if r.Metrics != nil {
		r.Metrics.ObserveReport(rep)
	}

	r.logger.Info().
		Int("flashes", rep.FlashCount).
		Strs("flashed", rep.Flashed).
		Float64("btc_price", price).
		Int("recommendation_eur", amount).
		Msg("Indicators evaluated")
	return rep, nil
}

func (r *Runner) finishMetrics(ctx context.Context, start time.Time, runErr error) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.ObserveRun(start, r.now(), ErrorKind(runErr))
	if r.Pusher == nil {
		return
	}

	// push even when the run context is already cancelled
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.Pusher.Push(pushCtx, r.Metrics); err != nil {
		r.logger.Warn().Err(err).Msg("Pushing metrics failed")
	}
}
