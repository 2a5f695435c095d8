package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"syscall"
	"time"

	"salesdesk/config"
	"salesdesk/internal/command"
	"salesdesk/internal/log"
	"salesdesk/utils/path"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	_ "salesdesk/cmd/docs"
)

var (
	rootPath = path.RootPath()
	// 建置時以 -ldflags "-X main.Version=..." 注入
	Version  string
	envPath  string
	yamlPath string
	conf     *config.Configuration
	// 所有子命令共用的設定檔參數
	globalFlags = pflag.NewFlagSet("app", pflag.ContinueOnError)
)

func init() {
	globalFlags.StringVarP(&envPath, "env", "e", "", "Environment file, e.g. --env .env")
	globalFlags.StringVarP(&yamlPath, "config", "c", "", "YAML config file, e.g. --config config.yaml")

	cobra.OnInitialize(func() {
		if envPath != "" && yamlPath != "" {
			fmt.Fprintln(os.Stderr, "同時指定 --env 與 --config，將以 --env 優先")
		}
		initConfig()
	})
}

// @title        salesdesk API
// @version      1.0
// @description  多租戶銷售系統 API；租戶以子網域區分，管理 API 僅在控制平面子網域提供
// @host         localhost:3000
// @basePath     /

// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
// @description 請在欄位輸入 "Bearer {token}"
func main() {
	rootCmd := &cobra.Command{
		Use:          "app",
		Short:        "salesdesk multi-tenant sales server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := log.NewLogger(conf)
			if err != nil {
				return fmt.Errorf("init logger failed: %w", err)
			}
			defer logger.Sync()
			app, cleanup, err := wireApp(conf, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("start app ...")
			if err := app.Run(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("shutdown app ...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.Stop(shutdownCtx)
		},
	}

	rootCmd.PersistentFlags().AddFlagSet(globalFlags)
	command.Register(rootCmd, func() (*command.Command, func(), error) {
		cmdLogger, err := log.NewLogger(conf, log.StderrOnly())
		if err != nil {
			return nil, nil, fmt.Errorf("init logger failed: %w", err)
		}
		command, cleanup, err := wireCommand(conf, cmdLogger)
		if err != nil {
			return nil, nil, err
		}
		return command, func() {
			cleanup()
			_ = cmdLogger.Sync()
		}, nil
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig 設定來源優先序：環境變數 > --env 檔 > --config YAML
func initConfig() {
	loaded, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	conf = loaded
}

func loadConfig() (*config.Configuration, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	switch {
	case envPath != "":
		v.SetConfigFile(path.Resolve(rootPath, envPath))
		v.SetConfigType("env")
	case yamlPath != "":
		v.SetConfigFile(path.Resolve(filepath.Join(rootPath, "conf"), yamlPath))
		v.SetConfigType("yaml")
	}

	if file := v.ConfigFileUsed(); file != "" {
		if ok, err := path.Exists(file); err != nil || !ok {
			return nil, fmt.Errorf("config file not found: %s", file)
		}
		fmt.Fprintln(os.Stderr, "load config:", file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
		v.WatchConfig()
		// 連線池與路由在啟動時建立，設定變更需重啟才會生效
		v.OnConfigChange(func(in fsnotify.Event) {
			fmt.Fprintln(os.Stderr, "config file changed, restart required:", in.Name)
		})
	}

	bindEnvs(v, reflect.TypeOf(config.Configuration{}))

	loaded := &config.Configuration{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if loaded.App.Version == "" {
		loaded.App.Version = Version
	}
	return loaded.ApplyDefaults(), nil
}

// bindEnvs 依 mapstructure tag 綁定 A__B__C 形式的環境變數
func bindEnvs(v *viper.Viper, t reflect.Type, prefix ...string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			tag = field.Name
		}
		key := append(slices.Clone(prefix), tag)
		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}
		if fieldType.Kind() == reflect.Struct {
			bindEnvs(v, fieldType, key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "__"))
	}
}
