package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/SimWebTrack/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Auth    models.Credentials  `mapstructure:"auth"`
	Scrape  models.ScrapeConfig `mapstructure:"scrape"`
	Paths   PathsConfig         `mapstructure:"paths"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Monitor MonitorConfig       `mapstructure:"monitor"`
}

// PathsConfig 文件路径配置
type PathsConfig struct {
	QueuePath  string `mapstructure:"queue_path"`  // 工作队列文件
	LedgerPath string `mapstructure:"ledger_path"` // 结果台账文件
	CookiePath string `mapstructure:"cookie_path"` // Cookie存储文件
	ReportDir  string `mapstructure:"report_dir"`  // 运行报告目录
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// MonitorConfig 资源看门狗配置
type MonitorConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	IntervalSecs int  `mapstructure:"interval"`       // 采样间隔(秒)
	LowMemoryMB  int  `mapstructure:"low_memory_mb"`  // 可用内存告警阈值(MB)
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".simwebtrack"))
		}
	}

	// 凭据优先从环境变量读取,避免落盘
	v.SetEnvPrefix("SIMWEBTRACK")
	v.BindEnv("auth.username", "SIMWEBTRACK_USERNAME")
	v.BindEnv("auth.password", "SIMWEBTRACK_PASSWORD")

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
// 等待时长与阈值的默认值沿用历史脚本的取值
func setDefaults(v *viper.Viper) {
	// 抓取配置默认值
	v.SetDefault("scrape.entry_url", "https://dash.3ue.com/zh-Hans/#/page/m/home")
	v.SetDefault("scrape.landing_url", "https://sim.3ue.com/#/digitalsuite/home")
	v.SetDefault("scrape.url_template",
		"https://sim.3ue.com/#/digitalsuite/websiteanalysis/overview/website-performance/*/999/2025.01-2025.08?webSource=Total&key={website_name}")
	v.SetDefault("scrape.use_cookies", true)
	v.SetDefault("scrape.headless", true)

	v.SetDefault("scrape.nav_settle.min", 3.0)
	v.SetDefault("scrape.nav_settle.max", 7.0)
	v.SetDefault("scrape.login_settle.min", 5.0)
	v.SetDefault("scrape.login_settle.max", 10.0)
	v.SetDefault("scrape.landing_settle.min", 10.0)
	v.SetDefault("scrape.landing_settle.max", 15.0)
	v.SetDefault("scrape.render_settle.min", 8.0)
	v.SetDefault("scrape.render_settle.max", 12.0)
	v.SetDefault("scrape.target_delay.min", 3.0)
	v.SetDefault("scrape.target_delay.max", 5.0)

	v.SetDefault("scrape.gate_timeout", 30)
	v.SetDefault("scrape.landing_gate_timeout", 60)
	v.SetDefault("scrape.gate_poll_interval", 2)
	v.SetDefault("scrape.share_timeout", 20)
	v.SetDefault("scrape.metric_timeout", 30)
	v.SetDefault("scrape.breaker_window", 3)

	// 路径默认值
	v.SetDefault("paths.queue_path", "data/queue.txt")
	v.SetDefault("paths.ledger_path", "data/similarweb_data.txt")
	v.SetDefault("paths.cookie_path", "data/cookies.json")
	v.SetDefault("paths.report_dir", "data/reports")

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 资源看门狗默认值
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.interval", 30)
	v.SetDefault("monitor.low_memory_mb", 500)
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	username string,
	password string,
	queuePath string,
	ledgerPath string,
	cookiePath string,
	useCookies bool,
	headless bool,
) {
	if username != "" {
		c.Auth.Username = username
	}
	if password != "" {
		c.Auth.Password = password
	}
	if queuePath != "" {
		c.Paths.QueuePath = queuePath
	}
	if ledgerPath != "" {
		c.Paths.LedgerPath = ledgerPath
	}
	if cookiePath != "" {
		c.Paths.CookiePath = cookiePath
	}
	c.Scrape.UseCookies = useCookies
	c.Scrape.Headless = headless
}

// Validate 校验整体配置
func (c *Config) Validate() error {
	if err := c.Scrape.Validate(); err != nil {
		return err
	}
	if c.Paths.QueuePath == "" || c.Paths.LedgerPath == "" || c.Paths.CookiePath == "" {
		return fmt.Errorf("队列、台账和Cookie文件路径都不能为空")
	}
	return nil
}
