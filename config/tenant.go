package config

type Tenant struct {
	// 內嵌引擎（sqlite）資料檔根目錄
	DataRoot string `mapstructure:"DATA_ROOT" json:"dataRoot" yaml:"dataRoot"`
	// 資料庫名稱前綴，預設 sales → sales_{subdomain}
	DatabasePrefix string `mapstructure:"DATABASE_PREFIX" json:"databasePrefix" yaml:"databasePrefix"`
	// 保留子網域（不可註冊）
	ReservedSubdomains []string `mapstructure:"RESERVED_SUBDOMAINS" json:"reservedSubdomains" yaml:"reservedSubdomains"`
	// 控制平面 label（admin.example.com）
	ControlPlaneLabel string `mapstructure:"CONTROL_PLANE_LABEL" json:"controlPlaneLabel" yaml:"controlPlaneLabel"`
	// 若設定則以 base domain 切出子網域，否則取最左 label
	BaseDomain string `mapstructure:"BASE_DOMAIN" json:"baseDomain" yaml:"baseDomain"`
	// 沒有子網域時允許通過的路徑（結尾 * 代表前綴）
	PublicPaths []string `mapstructure:"PUBLIC_PATHS" json:"publicPaths" yaml:"publicPaths"`
	// provision 鎖的 TTL（秒）
	ProvisionLockTTL int64 `mapstructure:"PROVISION_LOCK_TTL" json:"provisionLockTTL" yaml:"provisionLockTTL"`
	// 取得連線的最大嘗試次數
	ConnectRetries uint `mapstructure:"CONNECT_RETRIES" json:"connectRetries" yaml:"connectRetries"`
	// 單次連線（ping）逾時（毫秒）
	ConnectTimeout int64 `mapstructure:"CONNECT_TIMEOUT" json:"connectTimeout" yaml:"connectTimeout"`

	Defaults TenantDatabaseDefaults `mapstructure:"DEFAULTS" json:"defaults" yaml:"defaults"`
	Seed     TenantSeed             `mapstructure:"SEED" json:"seed" yaml:"seed"`
}

// TenantDatabaseDefaults 非內嵌引擎的連線樣板
type TenantDatabaseDefaults struct {
	Engine          string            `mapstructure:"ENGINE" json:"engine" yaml:"engine"`
	Host            string            `mapstructure:"HOST" json:"host" yaml:"host"`
	Port            int               `mapstructure:"PORT" json:"port" yaml:"port"`
	User            string            `mapstructure:"USER" json:"user" yaml:"user"`
	Password        string            `mapstructure:"PASSWORD" json:"password" yaml:"password"`
	Options         map[string]string `mapstructure:"OPTIONS" json:"options" yaml:"options"`
	MaxOpenConns    int               `mapstructure:"MAX_OPEN_CONNS" json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int               `mapstructure:"MAX_IDLE_CONNS" json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime int64             `mapstructure:"CONN_MAX_LIFETIME" json:"connMaxLifetime" yaml:"connMaxLifetime"` // 秒
}

// TenantSeed 新租戶預設管理員
type TenantSeed struct {
	AdminUsername string `mapstructure:"ADMIN_USERNAME" json:"adminUsername" yaml:"adminUsername"`
	// 留空則每個租戶隨機產生
	AdminPassword string `mapstructure:"ADMIN_PASSWORD" json:"-" yaml:"adminPassword"`
}
