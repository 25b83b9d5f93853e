package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

const (
	// DefaultConfigFile init命令生成的默认配置文件路径
	DefaultConfigFile = "configs/config.yaml"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024

	// envPrefix 环境变量前缀, 如 SHEETHARVEST_DOWNLOAD_CONCURRENCY
	envPrefix = "SHEETHARVEST"
)

// Config 应用程序配置
type Config struct {
	Site     models.SiteConfig     `mapstructure:"site"`
	Fetch    models.FetchConfig    `mapstructure:"fetch"`
	Download models.DownloadConfig `mapstructure:"download"`
	Cache    models.CacheConfig    `mapstructure:"cache"`
	Report   ReportConfig          `mapstructure:"report"`
	Logging  LoggingConfig         `mapstructure:"logging"`

	// source 实际读取的配置文件, 为空表示只使用默认值
	source string
}

// ReportConfig 报告输出配置
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
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

// LoadConfig 加载配置文件
// configPath为空时依次搜索 ./configs, ., ~/.sheetharvest 下的config.yaml, 都不存在则使用默认值;
// 显式指定的文件不存在时返回错误
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		if err := checkFileSize(configPath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sheetharvest"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: err}
		}
		utils.Debug("未找到配置文件, 使用默认配置")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: v.ConfigFileUsed(),
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}
	config.source = v.ConfigFileUsed()

	if config.Fetch.Headers == nil {
		config.Fetch.Headers = make(map[string]string)
	}

	return &config, nil
}

// checkFileSize 拒绝过大的配置文件
func checkFileSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &models.ConfigError{FilePath: path, Cause: err}
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: path,
			Cause: fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)",
				info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 站点发现默认值
	v.SetDefault("site.root_url", "https://www.educationcounts.govt.nz/data-services/data-collections")
	v.SetDefault("site.section_markers", []string{"data-collections/national/"})
	v.SetDefault("site.target_markers", []string{".xls"})
	v.SetDefault("site.subpage_label_prefix", "Statistics: ")

	// 页面抓取默认值
	v.SetDefault("fetch.mode", string(models.FetchModeStatic))
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.headers", map[string]string{})

	// 下载默认值
	v.SetDefault("download.output_dir", "moe_xls")
	v.SetDefault("download.concurrency", 64)
	v.SetDefault("download.chunk_size", 1024)
	v.SetDefault("download.timeout", time.Duration(0))
	v.SetDefault("download.min_free_mb", 0)

	// 缓存默认值
	v.SetDefault("cache.path", "moe_xls_urls.json")
	v.SetDefault("cache.use_cached", false)

	v.SetDefault("report.dir", "reports")

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// Validate 验证配置
func (c *Config) Validate() error {
	checks := []struct {
		section string
		check   func() error
	}{
		{"site", c.Site.Validate},
		{"fetch", c.Fetch.Validate},
		{"download", c.Download.Validate},
		{"cache", c.Cache.Validate},
		{"logging", c.Logging.Validate},
	}

	for _, item := range checks {
		if err := item.check(); err != nil {
			return &models.ConfigError{
				FilePath: c.source,
				Cause:    fmt.Errorf("%s: %w", item.section, err),
			}
		}
	}
	return nil
}

// Validate 验证日志配置
func (c *LoggingConfig) Validate() error {
	if c.Level != "" {
		if _, err := zerolog.ParseLevel(c.Level); err != nil {
			return fmt.Errorf("无效的日志级别: %s", c.Level)
		}
	}
	if c.LogDir == "" {
		return fmt.Errorf("日志目录不能为空")
	}
	return nil
}

// LogConfig 转换为日志系统配置
func (c *LoggingConfig) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Level,
		LogDir:     c.LogDir,
		MaxSize:    c.Rotation.MaxSize,
		MaxBackups: c.Rotation.MaxBackups,
		MaxAge:     c.Rotation.MaxAge,
		Compress:   c.Rotation.Compress,
	}
}

// Source 返回实际使用的配置文件路径
func (c *Config) Source() string {
	return c.source
}
