package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	subsystem = "battery_sizer"

	calculationsTotal       = "calculations_total"
	validationFailuresTotal = "validation_failures_total"
	catalogReloadsTotal     = "catalog_reloads_total"

	// Labels
	chemistryLabel = "chemistry"
	transportLabel = "transport"
	resultLabel    = "result"
)

// Transports a calculation can arrive through.
const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

var calculationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      calculationsTotal,
		Help:      "number of completed sizing calculations",
	},
	[]string{chemistryLabel, transportLabel},
)

var validationFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      validationFailuresTotal,
		Help:      "number of sizing requests rejected by input validation",
	},
	[]string{transportLabel},
)

var catalogReloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      catalogReloadsTotal,
		Help:      "number of lookup table reloads by result",
	},
	[]string{resultLabel},
)

func IncreaseCalculationsTotalMetric(chemistry, transport string) {
	calculationsTotalMetric.With(prometheus.Labels{
		chemistryLabel: chemistry,
		transportLabel: transport,
	}).Inc()
}

func IncreaseValidationFailuresTotalMetric(transport string) {
	validationFailuresTotalMetric.With(prometheus.Labels{
		transportLabel: transport,
	}).Inc()
}

// IncreaseCatalogReloadsTotalMetric counts a reload; result is "ok" or "error".
func IncreaseCatalogReloadsTotalMetric(result string) {
	catalogReloadsTotalMetric.With(prometheus.Labels{
		resultLabel: result,
	}).Inc()
}

var httpMiddleware = NewMiddleware(subsystem)

// HTTP records request counts and latency on the default registry.
func HTTP(next http.Handler) http.Handler {
	return httpMiddleware.Handler(next)
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(calculationsTotalMetric)
	prometheus.MustRegister(validationFailuresTotalMetric)
	prometheus.MustRegister(catalogReloadsTotalMetric)
	prometheus.MustRegister(httpMiddleware.Collectors()...)
}
