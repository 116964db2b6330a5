package runner

import (
	"context"

	"github.com/Alias1177/DCAMailer/internal/api/chartinspect"
	"github.com/Alias1177/DCAMailer/internal/api/coingecko"
	"github.com/Alias1177/DCAMailer/internal/config"
	"github.com/Alias1177/DCAMailer/internal/indicators"
	"github.com/Alias1177/DCAMailer/internal/metrics"
	"github.com/Alias1177/DCAMailer/internal/notify"
	"github.com/Alias1177/DCAMailer/models"
)

// FromConfig assembles a Runner for the configured data source and channels.
// Nothing here touches the network.
func FromConfig(cfg *config.Config) *Runner {
	var (
		fetchers []models.IndicatorFetcher
		price    models.PriceFetcher
	)

	switch cfg.DataSource {
	case config.SourcePlaceholder:
		fetchers, price = indicators.PlaceholderSet()
	default:
		ci := chartinspect.NewClient(chartinspect.ClientOptions{
			APIKey:         cfg.ChartInspectAPIKey,
			BaseURL:        cfg.ChartInspectBaseURL,
			RequestTimeout: cfg.RequestTimeoutDuration(),
			RequestsPerSec: cfg.RequestsPerSec,
			MaxRetries:     cfg.MaxRetries,
		})
		cg := coingecko.NewClient(coingecko.ClientOptions{
			BaseURL:        cfg.CoinGeckoBaseURL,
			RequestTimeout: cfg.RequestTimeoutDuration(),
			RequestsPerSec: cfg.RequestsPerSec,
			MaxRetries:     cfg.MaxRetries,
		})
		fetchers, price = indicators.LiveSet(ci, cg, cfg.LookbackDays)
	}

	r := &Runner{
		Fetchers: fetchers,
		Price:    price,
		Mailer: notify.NewEmailSender(notify.SMTPConfig{
			Host:     cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.SenderEmail,
			Password: cfg.SenderPassword,
			Timeout:  cfg.RequestTimeoutDuration(),
		}),
		Metrics:      metrics.New(),
		From:         cfg.SenderEmail,
		To:           cfg.RecipientEmail,
		Subject:      cfg.EmailSubject,
		LookbackDays: cfg.LookbackDays,
	}

	if cfg.TelegramBotToken != "" {
		r.Notifiers = append(r.Notifiers, notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.PushgatewayURL != "" {
		r.Pusher = metrics.NewPusher(cfg.PushgatewayURL)
	}
	return r
}

// Execute loads configuration and performs one run bounded by RUN_TIMEOUT.
// Configuration errors are returned before any connection is opened.
func Execute(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeoutDuration())
	defer cancel()

	return FromConfig(cfg).Run(ctx)
}
