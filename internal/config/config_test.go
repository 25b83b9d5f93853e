package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入 %s 失败: %v", path, err)
	}
	return path
}

// isolate 切换到空目录并替换HOME, 避免读到仓库或用户目录里的config.yaml
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("获取工作目录失败: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("切换目录失败: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Site.RootURL != "https://www.educationcounts.govt.nz/data-services/data-collections" {
		t.Errorf("RootURL = %s", cfg.Site.RootURL)
	}
	if len(cfg.Site.TargetMarkers) != 1 || cfg.Site.TargetMarkers[0] != ".xls" {
		t.Errorf("TargetMarkers = %v", cfg.Site.TargetMarkers)
	}
	if cfg.Site.SubpageLabelPrefix != "Statistics: " {
		t.Errorf("SubpageLabelPrefix = %q", cfg.Site.SubpageLabelPrefix)
	}
	if cfg.Download.Concurrency != 64 || cfg.Download.ChunkSize != 1024 {
		t.Errorf("Download = %+v", cfg.Download)
	}
	if cfg.Fetch.Mode != models.FetchModeStatic || cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Cache.Path != "moe_xls_urls.json" || cfg.Cache.UseCached {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Source() != "" {
		t.Errorf("Source() = %s, 期望为空", cfg.Source())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应通过验证: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", `
site:
  target_markers: [".xls", ".csv"]
fetch:
  mode: render
  timeout: 5s
  headers:
    X-Api-Key: abc
download:
  concurrency: 8
  timeout: 2m
cache:
  use_cached: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.Site.TargetMarkers) != 2 {
		t.Errorf("TargetMarkers = %v", cfg.Site.TargetMarkers)
	}
	if cfg.Site.SubpageLabelPrefix != "Statistics: " {
		t.Errorf("未覆盖的字段应保留默认值, 实际 %q", cfg.Site.SubpageLabelPrefix)
	}
	if cfg.Fetch.Mode != models.FetchModeRender || cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	// viper会把map的键转为小写
	if cfg.Fetch.Headers["x-api-key"] != "abc" {
		t.Errorf("Headers = %v", cfg.Fetch.Headers)
	}
	if cfg.Download.Concurrency != 8 || cfg.Download.Timeout != 2*time.Minute {
		t.Errorf("Download = %+v", cfg.Download)
	}
	if !cfg.Cache.UseCached {
		t.Error("UseCached应为true")
	}
	if cfg.Source() != path {
		t.Errorf("Source() = %s, want %s", cfg.Source(), path)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SHEETHARVEST_DOWNLOAD_CONCURRENCY", "16")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Download.Concurrency != 16 {
		t.Errorf("Concurrency = %d, want 16", cfg.Download.Concurrency)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"文件不存在", filepath.Join(dir, "missing.yaml")},
		{"YAML格式错误", writeFile(t, dir, "bad.yaml", "site: [unclosed")},
		{"文件过大", writeFile(t, dir, "huge.yaml", "# "+strings.Repeat("x", MaxConfigFileSize))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			var ce *models.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("期望ConfigError, 实际 %v", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"无效根URL", func(c *Config) { c.Site.RootURL = "not a url" }},
		{"空目标标记", func(c *Config) { c.Site.TargetMarkers = nil }},
		{"无效抓取模式", func(c *Config) { c.Fetch.Mode = "ftp" }},
		{"并发数为0", func(c *Config) { c.Download.Concurrency = 0 }},
		{"并发数过大", func(c *Config) { c.Download.Concurrency = models.MaxConcurrency + 1 }},
		{"块大小过大", func(c *Config) { c.Download.ChunkSize = models.MaxChunkSize + 1 }},
		{"缓存路径为空", func(c *Config) { c.Cache.Path = "" }},
		{"无效日志级别", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			var ce *models.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("期望ConfigError, 实际 %v", err)
			}
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.yaml")

	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Error("文件已存在时应返回错误")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Errorf("force覆盖失败: %v", err)
	}

	// 模板本身必须能被加载并通过验证
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载模板失败: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("模板应通过验证: %v", err)
	}
}
