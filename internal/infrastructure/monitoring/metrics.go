package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type CacheMetrics struct {
	LookupsTotal *prometheus.CounterVec
}

type BusinessMetrics struct {
	CustomersCreatedTotal  prometheus.Counter
	CustomersUpdatedTotal  prometheus.Counter
	CustomersRemovedTotal  prometheus.Counter
	BusinessRuleRejections *prometheus.CounterVec
	CustomersRegistered    prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "osworks_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Cache = CacheMetrics{
		LookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osworks_cache_lookups_total",
				Help: "Customer cache lookups by result.",
			},
			[]string{"result"},
		),
	}

	Business = BusinessMetrics{
		CustomersCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "osworks_clientes_criados_total",
				Help: "Total number of customers created.",
			},
		),
		CustomersUpdatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "osworks_clientes_atualizados_total",
				Help: "Total number of customers updated.",
			},
		),
		CustomersRemovedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "osworks_clientes_removidos_total",
				Help: "Total number of customers removed.",
			},
		),
		BusinessRuleRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osworks_regras_negocio_rejeicoes_total",
				Help: "Operations rejected by a business rule.",
			},
			[]string{"rule"},
		),
		CustomersRegistered: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "osworks_clientes_cadastrados",
				Help: "Number of customers currently registered.",
			},
		),
	}
)

func RecordDBQuery(queryName string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCacheLookup(hit bool) {
	if hit {
		Cache.LookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	Cache.LookupsTotal.WithLabelValues("miss").Inc()
}

func RecordCustomerCreated() {
	Business.CustomersCreatedTotal.Inc()
}

func RecordCustomerUpdated() {
	Business.CustomersUpdatedTotal.Inc()
}

func RecordCustomerRemoved() {
	Business.CustomersRemovedTotal.Inc()
}

func RecordBusinessRuleRejection(rule string) {
	Business.BusinessRuleRejections.WithLabelValues(rule).Inc()
}

func SetCustomersRegistered(count int64) {
	Business.CustomersRegistered.Set(float64(count))
}
