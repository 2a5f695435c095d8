package config

// Database 控制平面（租戶註冊表）資料庫
type Database struct {
	// 例：sqlite:///var/lib/salesdesk/controlplane.sqlite3、postgres://u:p@db:5432/salesdesk
	URL             string `mapstructure:"URL" json:"url" yaml:"url"`
	MaxOpenConns    int    `mapstructure:"MAX_OPEN_CONNS" json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int    `mapstructure:"MAX_IDLE_CONNS" json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime int64  `mapstructure:"CONN_MAX_LIFETIME" json:"connMaxLifetime" yaml:"connMaxLifetime"` // 秒
}
