package telemetry

import (
	"strconv"

	"salesdesk/config"
	"salesdesk/internal/core"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ProviderSet = wire.NewSet(NewMetric, NewTrace)

// Metric struct
type Metric struct {
	HttpRequestsTotal     *prometheus.CounterVec
	HttpRequestDuration   *prometheus.HistogramVec
	ResponseSuccessTotal  *prometheus.CounterVec
	ResponseFailTotal     *prometheus.CounterVec
	TenantResolutionTotal *prometheus.CounterVec
	TenantPoolsRegistered prometheus.Gauge
	TenantPoolOpenTotal   *prometheus.CounterVec
	TenantProvisionTotal  *prometheus.CounterVec
	RoutingViolationTotal *prometheus.CounterVec
	TenantPoolHealthy     *prometheus.GaugeVec
	config                *config.Configuration
}

// NewMetric 建立所有指標
func NewMetric(config *config.Configuration) *Metric {
	if config == nil || !config.Telemetry.Metric.Enabled {
		return &Metric{}
	}
	buckets := prometheus.DefBuckets
	if len(config.Telemetry.Metric.Buckets) > 0 {
		buckets = config.Telemetry.Metric.Buckets
	}
	prefix := config.App.Name + "_"
	return &Metric{
		config: config,
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricHttpRequestsTotal),
				Help: "Total received API requests",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + string(core.MetricHttpRequestDuration),
				Help:    "Request duration (seconds)",
				Buckets: buckets,
			},
			labelNames(core.MetricLabelEndpoint),
		),
		ResponseSuccessTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricResponseSuccessTotal),
				Help: "Successful wrapped responses",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		ResponseFailTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricResponseFailTotal),
				Help: "Failed responses by error message",
			},
			labelNames(core.MetricLabelReason),
		),
		TenantResolutionTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricTenantResolutionTotal),
				Help: "Host resolution outcomes by state",
			},
			labelNames(core.MetricLabelState),
		),
		TenantPoolsRegistered: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + string(core.MetricTenantPoolsRegistered),
				Help: "Tenant connection pools currently registered",
			},
		),
		TenantPoolOpenTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricTenantPoolOpenTotal),
				Help: "Tenant pool open attempts by engine and result",
			},
			labelNames(core.MetricLabelEngine, core.MetricLabelResult),
		),
		TenantProvisionTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricTenantProvisionTotal),
				Help: "Tenant provisioning outcomes",
			},
			labelNames(core.MetricLabelResult),
		),
		RoutingViolationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricRoutingViolationTotal),
				Help: "Routing contract violations by entity",
			},
			labelNames(core.MetricLabelEntity),
		),
		TenantPoolHealthy: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + string(core.MetricTenantPoolHealthy),
				Help: "1 if the last health sweep reached the tenant database",
			},
			labelNames(core.MetricLabelDatabase),
		),
	}
}

// 以下 helper 允許 metric 停用（欄位為 nil）時直接呼叫

func (m *Metric) ObserveSuccess(endpoint string, status int) {
	if m == nil || m.ResponseSuccessTotal == nil {
		return
	}
	m.ResponseSuccessTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func (m *Metric) ObserveFailure(reason string) {
	if m == nil || m.ResponseFailTotal == nil {
		return
	}
	m.ResponseFailTotal.WithLabelValues(reason).Inc()
}

func (m *Metric) ObserveResolution(state core.HostState) {
	if m == nil || m.TenantResolutionTotal == nil {
		return
	}
	m.TenantResolutionTotal.WithLabelValues(string(state)).Inc()
}

func (m *Metric) SetPoolsRegistered(n int) {
	if m == nil || m.TenantPoolsRegistered == nil {
		return
	}
	m.TenantPoolsRegistered.Set(float64(n))
}

func (m *Metric) ObservePoolOpen(engine core.Engine, result string) {
	if m == nil || m.TenantPoolOpenTotal == nil {
		return
	}
	m.TenantPoolOpenTotal.WithLabelValues(string(engine), result).Inc()
}

func (m *Metric) ObserveProvision(result string) {
	if m == nil || m.TenantProvisionTotal == nil {
		return
	}
	m.TenantProvisionTotal.WithLabelValues(result).Inc()
}

func (m *Metric) ObserveRoutingViolation(entity core.Entity) {
	if m == nil || m.RoutingViolationTotal == nil {
		return
	}
	m.RoutingViolationTotal.WithLabelValues(string(entity)).Inc()
}

func (m *Metric) SetPoolHealthy(database string, healthy bool) {
	if m == nil || m.TenantPoolHealthy == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	m.TenantPoolHealthy.WithLabelValues(database).Set(v)
}

// labelNames helper: LabelName slice 轉成 []string
func labelNames(labels ...core.MetricLabelName) []string {
	strs := make([]string, len(labels))
	for i, l := range labels {
		strs[i] = string(l)
	}
	return strs
}
