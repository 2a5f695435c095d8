package core

// ==== 型別安全 span name ====
// 專案全域建議都寫這裡，方便集中管理
type TraceSpanName string

const (
	SpanHttpRequest          TraceSpanName = "http_request"
	SpanLoggerMiddleware     TraceSpanName = "logger_middleware"
	SpanRecoveryMiddleware   TraceSpanName = "recovery_middleware"
	SpanCorsMiddleware       TraceSpanName = "cors_middleware"
	SpanResponseMiddleware   TraceSpanName = "response_middleware"
	SpanTenantMiddleware     TraceSpanName = "tenant_middleware"
	SpanAdminAuthMiddleware  TraceSpanName = "admin_auth_middleware"
	SpanPoolEnsureRegistered TraceSpanName = "pool_ensure_registered"
	SpanTenantProvision      TraceSpanName = "tenant_provision"
	SpanTenantMigrate        TraceSpanName = "tenant_migrate"
	SpanCronPoolSweep        TraceSpanName = "cron_pool_sweep"
	SpanCronProvisionRetry   TraceSpanName = "cron_provision_retry"
)

// 指標名稱常數
type MetricName string

const (
	MetricHttpRequestsTotal     MetricName = "requests_total"
	MetricHttpRequestDuration   MetricName = "request_duration_seconds"
	MetricResponseSuccessTotal  MetricName = "response_success_total"
	MetricResponseFailTotal     MetricName = "response_fail_total"
	MetricTenantResolutionTotal MetricName = "tenant_resolutions_total"
	MetricTenantPoolsRegistered MetricName = "tenant_pools_registered"
	MetricTenantPoolOpenTotal   MetricName = "tenant_pool_open_total"
	MetricTenantProvisionTotal  MetricName = "tenant_provision_total"
	MetricRoutingViolationTotal MetricName = "routing_violations_total"
	MetricTenantPoolHealthy     MetricName = "tenant_pool_healthy"
)

// label name 常數
type MetricLabelName string

const (
	MetricLabelEndpoint MetricLabelName = "endpoint"
	MetricLabelStatus   MetricLabelName = "status"
	MetricLabelReason   MetricLabelName = "reason"
	MetricLabelState    MetricLabelName = "state"
	MetricLabelResult   MetricLabelName = "result"
	MetricLabelEngine   MetricLabelName = "engine"
	MetricLabelEntity   MetricLabelName = "entity"
	MetricLabelDatabase MetricLabelName = "database"
)

type LoggerRequestMeta struct {
	Method     string            `trace:"request.method"`
	Path       string            `trace:"request.path"`
	FullPath   string            `trace:"request.full_path"`
	Query      string            `trace:"request.query"`
	Body       string            `trace:"request.body"`
	Scheme     string            `trace:"http.scheme"`
	Host       string            `trace:"http.host"`
	UserAgent  string            `trace:"http.user_agent"`
	ContentLen int64             `trace:"http.request_content_length"`
	Proto      string            `trace:"http.flavor"`
	ClientIP   string            `trace:"net.peer.ip"`
	Headers    map[string]string `trace:"http.request.header"`
	Params     map[string]string `trace:"http.request.param"`
}

type TracePanicMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	ClientIP   string  `trace:"net.peer.ip"`
	UserAgent  string  `trace:"http.user_agent"`
	DurationMs float64 `trace:"response.latency_ms"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"error.message"`
	Stack      string  `trace:"error.stack"`
}

type TraceErrorMeta struct {
	Code       int     `trace:"error.code"`
	Message    string  `trace:"error.message"`
	Detail     string  `trace:"error.detail"`
	Status     int     `trace:"http.status_code"`
	DurationMs float64 `trace:"response.latency_ms"`
}

type TraceResponseMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"response.message"`
	Code       int     `trace:"response.code"`
	DurationMs float64 `trace:"response.latency_ms"`
	Data       string  `trace:"response.data_preview"`
}

type TraceHttpServerMeta struct {
	// request side
	ClientAddr        string `trace:"client.address"`
	HttpRequestMethod string `trace:"http.request.method"`
	HttpRoute         string `trace:"http.route"`
	UrlPath           string `trace:"http.request.path"`
	UrlScheme         string `trace:"http.request.url.scheme"`
	UserAgent         string `trace:"user_agent.original"`
	ServerAddress     string `trace:"server.address"`
	NetworkPeerAddr   string `trace:"network.peer.address"`
	NetworkPeerPort   int    `trace:"network.peer.port"`
	NetworkProtoVer   string `trace:"network.protocol.version"`
	SpanKind          string `trace:"span.kind"`
	SpanTraceID       string `trace:"span.trace_id"`
	HttpStatusCode    int    `trace:"http.response.status_code"`
	HostState         string `trace:"tenant.host_state,omitempty"`
	TenantID          string `trace:"tenant.id,omitempty"`
}

type TraceTenantResolveMeta struct {
	Host         string `trace:"tenant.host"`
	Subdomain    string `trace:"tenant.subdomain,omitempty"`
	State        string `trace:"tenant.host_state"`
	TenantID     string `trace:"tenant.id,omitempty"`
	DatabaseName string `trace:"tenant.database_name,omitempty"`
	Status       string `trace:"tenant.status,omitempty"`
}

type TraceAdminAuthMeta struct {
	Username string `trace:"auth.username,omitempty"`
	Role     string `trace:"auth.role,omitempty"`
	Status   string `trace:"auth.status"`
}

type TracePoolMeta struct {
	Op       string `trace:"pool.op"`
	Key      string `trace:"pool.key"`
	Engine   string `trace:"pool.engine,omitempty"`
	Created  bool   `trace:"pool.created"`
	Attempts int    `trace:"pool.attempts,omitempty"`
	Entries  int    `trace:"pool.entries"`
}

type TraceProvisionMeta struct {
	TenantID     string  `trace:"tenant.id"`
	Subdomain    string  `trace:"tenant.subdomain"`
	Engine       string  `trace:"tenant.engine"`
	DatabaseName string  `trace:"tenant.database_name"`
	Step         string  `trace:"provision.step"`
	Kind         string  `trace:"provision.error_kind,omitempty"`
	Migrations   int     `trace:"provision.migrations_applied"`
	Error        *string `trace:"error,omitempty"`
}

type TraceRoutingMeta struct {
	Entity    string `trace:"routing.entity"`
	Scope     string `trace:"routing.scope"`
	TenantID  string `trace:"routing.tenant_id,omitempty"`
	Violation bool   `trace:"routing.violation"`
}

type TraceTenantRepoMeta struct {
	Op        string `trace:"op"`
	TenantID  string `trace:"tenant.id,omitempty"`
	Subdomain string `trace:"tenant.subdomain,omitempty"`
	Count     int    `trace:"result.count,omitempty"`
}

type TraceBusinessRepoMeta struct {
	Op       string `trace:"op"`
	Entity   string `trace:"entity"`
	TenantID string `trace:"tenant.id"`
	Count    int    `trace:"result.count,omitempty"`
}

type TraceProvisionLockMeta struct {
	Op       string `trace:"lock.op"` // "acquire" / "release"
	TenantID string `trace:"lock.tenant_id"`
	TTLSec   int64  `trace:"lock.ttl_sec,omitempty"`
	Acquired bool   `trace:"lock.acquired"`
}

type TraceTenantEventMeta struct {
	Op       string `trace:"op"`
	TenantID string `trace:"tenant.id,omitempty"`
	Action   string `trace:"audit.action,omitempty"`
	Status   string `trace:"audit.status,omitempty"`
	Count    int    `trace:"result.count,omitempty"`
}
