// Package metrics 基于Prometheus的业务与HTTP指标
//
// 指标分三类：
//   - HTTP：请求数、耗时、并发中请求数（由middleware.Metrics采集）
//   - 业务：下单结果、库存扣减结果、上架数、图片上传结果、对账积压
//   - 基础设施：熔断器状态、Saga补偿、MQ发布
//
// 所有指标通过promauto注册到默认Registry，由 /metrics 端点暴露。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP

	HTTPRequestsTotal      *prometheus.CounterVec   // labels: method, path, status
	HTTPRequestDuration    *prometheus.HistogramVec // labels: method, path
	HTTPRequestsInProgress prometheus.Gauge

	// 下单

	// PurchasesTotal 下单结果 labels: result(success/insufficient_stock/seller_not_found/unauthenticated/failed)
	PurchasesTotal   *prometheus.CounterVec
	PurchaseDuration prometheus.Histogram

	// StockDecrementsTotal 原子扣减结果 labels: result(ok/insufficient/not_found/corrupt/error)
	StockDecrementsTotal *prometheus.CounterVec

	// SagaCompensationsTotal Saga补偿 labels: saga, step, result(ok/failed)
	SagaCompensationsTotal *prometheus.CounterVec

	// 上架与上传

	ListingsCreatedTotal prometheus.Counter
	// UploadsTotal 上传请求结果 labels: result(success/empty/failed)
	UploadsTotal       *prometheus.CounterVec
	UploadedFilesTotal prometheus.Counter

	// 基础设施

	// CircuitBreakerState 0=CLOSED 1=OPEN 2=HALF_OPEN labels: name
	CircuitBreakerState *prometheus.GaugeVec

	// MessagesPublishedTotal labels: routing_key, result(success/failure)
	MessagesPublishedTotal *prometheus.CounterVec

	// ReconcilePending 对账日志中尚未处理的条目数
	ReconcilePending       prometheus.Gauge
	ReconcileResolvedTotal prometheus.Counter
)

// InitMetrics 注册所有指标，可重复调用
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		}, []string{"method", "path", "status"})

		HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		}, []string{"method", "path"})

		HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		})

		PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "usedbooks_purchases_total",
			Help: "确认购买请求结果",
		}, []string{"result"})

		PurchaseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "usedbooks_purchase_duration_seconds",
			Help:    "确认购买耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		})

		StockDecrementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "usedbooks_stock_decrements_total",
			Help: "库存原子扣减结果",
		}, []string{"result"})

		SagaCompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "usedbooks_saga_compensations_total",
			Help: "Saga补偿执行次数",
		}, []string{"saga", "step", "result"})

		ListingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "usedbooks_listings_created_total",
			Help: "上架图书总数",
		})

		UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "usedbooks_uploads_total",
			Help: "图片上传请求结果",
		}, []string{"result"})

		UploadedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "usedbooks_uploaded_files_total",
			Help: "成功上传到图床的文件数",
		})

		CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		}, []string{"name"})

		MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		}, []string{"routing_key", "result"})

		ReconcilePending = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "usedbooks_reconcile_pending",
			Help: "待对账的不一致记录数",
		})

		ReconcileResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "usedbooks_reconcile_resolved_total",
			Help: "对账任务修复的记录数",
		})
	})
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}
