package metrics

import (
	"context"
	"time"

	"github.com/Alias1177/DCAMailer/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "btc_dca_mailer"

// Metrics holds the gauges pushed once at the end of every run
type Metrics struct {
	registry *prometheus.Registry

	IndicatorValue  *prometheus.GaugeVec // labels: indicator
	IndicatorFlash  *prometheus.GaugeVec // labels: indicator
	FlashCount      prometheus.Gauge
	Recommendation  prometheus.Gauge
	BTCPrice        prometheus.Gauge
	RunDuration     prometheus.Gauge
	LastRunSuccess  prometheus.Gauge // 1 on success, 0 on failure
	LastSuccessTime prometheus.Gauge
	LastFailureTime *prometheus.GaugeVec // labels: kind
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		IndicatorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "btc_dca_indicator_value",
			Help: "Window minimum of each indicator in the last run",
		}, []string{"indicator"}),
		IndicatorFlash: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "btc_dca_indicator_flashed",
			Help: "1 when the indicator was below its threshold",
		}, []string{"indicator"}),
		FlashCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btc_dca_flash_count",
			Help: "Number of indicators below threshold",
		}),
		Recommendation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btc_dca_recommendation_eur",
			Help: "Recommended purchase in EUR",
		}),
		BTCPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btc_dca_btc_price_usd",
			Help: "BTC spot price at report time",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btc_dca_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btc_dca_last_run_success",
			Help: "1 when the last run delivered the email",
		}),
		LastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btc_dca_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		LastFailureTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "btc_dca_last_failure_timestamp_seconds",
			Help: "Unix time of the last failed run by error kind",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.IndicatorValue,
		m.IndicatorFlash,
		m.FlashCount,
		m.Recommendation,
		m.BTCPrice,
		m.RunDuration,
		m.LastRunSuccess,
		m.LastSuccessTime,
		m.LastFailureTime,
	)
	return m
}

// Registry exposes the collectors, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveReport records the evaluated report
func (m *Metrics) ObserveReport(r models.Report) {
	for _, reading := range r.Readings {
		m.IndicatorValue.WithLabelValues(reading.Name).Set(reading.Value)
		flashed := 0.0
		if reading.Flashed {
			flashed = 1
		}
		m.IndicatorFlash.WithLabelValues(reading.Name).Set(flashed)
	}
	m.FlashCount.Set(float64(r.FlashCount))
	m.Recommendation.Set(float64(r.Recommendation))
	m.BTCPrice.Set(r.BTCPrice)
}

// ObserveRun records the outcome of the run. kind is empty on success.
func (m *Metrics) ObserveRun(start, end time.Time, kind string) {
	m.RunDuration.Set(end.Sub(start).Seconds())
	if kind == "" {
		m.LastRunSuccess.Set(1)
		m.LastSuccessTime.Set(float64(end.Unix()))
		return
	}
	m.LastRunSuccess.Set(0)
	m.LastFailureTime.WithLabelValues(kind).Set(float64(end.Unix()))
}

// Pusher sends the registry to a Prometheus Pushgateway
type Pusher struct {
	url string
}

func NewPusher(url string) *Pusher {
	return &Pusher{url: url}
}

// Push replaces the job's metric group on the gateway
func (p *Pusher) Push(ctx context.Context, m *Metrics) error {
	return push.New(p.url, jobName).Gatherer(m.registry).PushContext(ctx)
}
