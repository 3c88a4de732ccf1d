package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 学习相关的业务指标
	ItemsLearned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiriboka_items_learned_total",
			Help: "Items marked as learned for the first time",
		},
		[]string{"kind"},
	)

	CoinsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiriboka_coins_awarded_total",
			Help: "Coins awarded to learners",
		},
		[]string{"kind"},
	)

	BadgesEarned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiriboka_badges_earned_total",
			Help: "Badges earned by learners",
		},
		[]string{"badge"},
	)

	LoginsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiriboka_logins_total",
			Help: "Successful logins",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ItemsLearned, CoinsAwarded, BadgesEarned, LoginsTotal)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		// 未匹配路由时 FullPath 为空，避免把任意路径打成标签
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
