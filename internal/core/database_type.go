package core

// ─── Database Engines ──────────────────────────────────────────────────────────

// Engine 租戶資料庫引擎
type Engine string

const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
)

// Engines contains all supported tenant database engines
var Engines = []Engine{EngineSQLite, EnginePostgres, EngineMySQL}

// IsEmbedded 內嵌（檔案型）引擎不需要 host/port/帳密
func (e Engine) IsEmbedded() bool {
	return e == EngineSQLite
}

// DefaultPort 網路型引擎的預設 port
func (e Engine) DefaultPort() int {
	switch e {
	case EnginePostgres:
		return 5432
	case EngineMySQL:
		return 3306
	default:
		return 0
	}
}

// ParseEngine 接受常見別名
func ParseEngine(name string) (Engine, bool) {
	switch name {
	case "sqlite", "sqlite3":
		return EngineSQLite, true
	case "postgres", "postgresql", "pgsql":
		return EnginePostgres, true
	case "mysql":
		return EngineMySQL, true
	default:
		return "", false
	}
}

// ─── Entities ──────────────────────────────────────────────────────────────────

// Entity 資料存取目標，決定走控制平面或租戶資料庫
type Entity string

const (
	// 控制平面（共用）
	EntityTenant         Entity = "tenant"
	EntityTenantLocation Entity = "tenant_location"

	// 租戶業務資料
	EntityRole              Entity = "role"
	EntityUser              Entity = "user"
	EntityProduct           Entity = "product"
	EntitySale              Entity = "sale"
	EntityInvoice           Entity = "invoice"
	EntityExpense           Entity = "expense"
	EntityFinancialForecast Entity = "financial_forecast"
	EntityAdminLog          Entity = "admin_log"
)

// SharedEntities 永遠路由到控制平面的實體，僅限租戶註冊表
var SharedEntities = []Entity{EntityTenant, EntityTenantLocation}

func (e Entity) IsShared() bool {
	for _, s := range SharedEntities {
		if e == s {
			return true
		}
	}
	return false
}

// ─── MongoDB ───────────────────────────────────────────────────────────────────

type MongoDatabaseName string
type MongoCollection string

const (
	MongoDBSalesdesk MongoDatabaseName = "salesdesk"
)

// MongoDB collections
const (
	MongoCollectionTenantEvents MongoCollection = "tenant_events"
)

// ─── Redis Keys ────────────────────────────────────────────────────────────────

type RedisKey string

const (
	RedisKeyServerName    RedisKey = "salesdesk"      // 伺服器名稱
	RedisKeyProvisionLock RedisKey = "provision_lock" // 租戶 provision 分散式鎖
)

// ─── Fluentd ───────────────────────────────────────────────────────────────────

type FluentdSubTag string

const (
	FluentdRequest  FluentdSubTag = "request_log"
	FluentdResponse FluentdSubTag = "response_log"
)
