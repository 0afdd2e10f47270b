package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/survey-backend/internal/platform/envutil"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

// Submission outcomes.
const (
	OutcomeStored      = "stored"
	OutcomeDuplicate   = "duplicate"
	OutcomeInvalid     = "invalid"
	OutcomeStorageFail = "storage_error"
	OutcomeSent        = "sent"
	OutcomeFailed      = "failed"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	submissions   *CounterVec
	notifications *CounterVec
	notifyLatency *HistogramVec
	dbStats       *GaugeVec
	redisUp       *Gauge
	redisPing     *Gauge
}

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("survey_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"survey_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight:   NewGauge("survey_api_inflight_requests", "In-flight API requests."),
		submissions:   NewCounterVec("survey_submissions_total", "Survey submissions by outcome.", []string{"outcome"}),
		notifications: NewCounterVec("survey_notifications_total", "Thank-you emails by mailer/outcome.", []string{"mailer", "outcome"}),
		notifyLatency: NewHistogramVec(
			"survey_notification_duration_seconds",
			"Thank-you email send latency in seconds by mailer.",
			[]string{"mailer"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		dbStats:   NewGaugeVec("survey_db_stats", "Database connection pool stats.", []string{"metric"}),
		redisUp:   NewGauge("survey_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing: NewGauge("survey_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

// Init returns a Metrics when METRICS_ENABLED is set, nil otherwise.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	if log != nil {
		log.Info("Observability metrics enabled")
	}
	return New()
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.Inc(outcome)
}

func (m *Metrics) SubmissionCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.submissions.Value(outcome)
}

func (m *Metrics) ObserveNotification(mailer, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.notifications.Inc(mailer, outcome)
	m.notifyLatency.Observe(dur.Seconds(), mailer)
}

func (m *Metrics) NotificationCount(mailer, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.notifications.Value(mailer, outcome)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.submissions, m.notifications, m.notifyLatency,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func scrapeInterval() time.Duration {
	d := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StartDBCollector samples connection pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings the lock Redis until ctx is done. The caller owns rdb.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
