package models

import (
	"fmt"
	"time"
)

// FetchMode 页面抓取模式
type FetchMode string

const (
	FetchModeStatic FetchMode = "static" // colly直接请求HTML
	FetchModeRender FetchMode = "render" // go-rod无头浏览器渲染
)

const (
	// MaxConcurrency 下载池并发上限
	MaxConcurrency = 256

	// MaxChunkSize 单次写入块大小上限 1MB
	MaxChunkSize = 1024 * 1024
)

// SiteConfig 站点发现配置
type SiteConfig struct {
	RootURL            string   `mapstructure:"root_url" json:"root_url"`                         // 根列表页
	SectionMarkers     []string `mapstructure:"section_markers" json:"section_markers"`           // 顶层栏目链接标记
	TargetMarkers      []string `mapstructure:"target_markers" json:"target_markers"`             // 目标文件链接标记
	SubpageLabelPrefix string   `mapstructure:"subpage_label_prefix" json:"subpage_label_prefix"` // 子页面链接文本前缀
}

// Validate 验证配置
func (c *SiteConfig) Validate() error {
	if err := ValidateURL(c.RootURL); err != nil {
		return fmt.Errorf("根列表页无效: %w", err)
	}
	if len(c.SectionMarkers) == 0 {
		return fmt.Errorf("至少需要一个栏目链接标记")
	}
	if len(c.TargetMarkers) == 0 {
		return fmt.Errorf("至少需要一个目标文件标记")
	}
	for _, m := range append(append([]string{}, c.SectionMarkers...), c.TargetMarkers...) {
		if m == "" {
			return fmt.Errorf("链接标记不能为空字符串")
		}
	}
	if c.SubpageLabelPrefix == "" {
		return fmt.Errorf("子页面链接文本前缀不能为空")
	}
	return nil
}

// FetchConfig 页面抓取配置
type FetchConfig struct {
	Mode      FetchMode         `mapstructure:"mode" json:"mode"`
	Timeout   time.Duration     `mapstructure:"timeout" json:"timeout"`
	UserAgent string            `mapstructure:"user_agent" json:"user_agent"`
	Headers   map[string]string `mapstructure:"headers" json:"headers,omitempty"`
}

// Validate 验证配置
func (c *FetchConfig) Validate() error {
	switch c.Mode {
	case FetchModeStatic, FetchModeRender:
	default:
		return fmt.Errorf("无效的抓取模式: %s (有效值: static, render)", c.Mode)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("抓取超时不能为负数")
	}
	return nil
}

// DownloadConfig 下载池配置
type DownloadConfig struct {
	OutputDir   string        `mapstructure:"output_dir" json:"output_dir"`
	Concurrency int           `mapstructure:"concurrency" json:"concurrency"`
	ChunkSize   int           `mapstructure:"chunk_size" json:"chunk_size"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`         // 单个请求超时,0表示不限制
	MinFreeMB   int           `mapstructure:"min_free_mb" json:"min_free_mb"` // 目标磁盘最少剩余空间,0表示不检查
}

// Validate 验证配置
func (c *DownloadConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("下载目录不能为空")
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("并发数必须在1-%d之间", MaxConcurrency)
	}
	if c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("块大小必须在1-%d字节之间", MaxChunkSize)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("下载超时不能为负数")
	}
	if c.MinFreeMB < 0 {
		return fmt.Errorf("最少剩余空间不能为负数")
	}
	return nil
}

// CacheConfig URL列表缓存配置
type CacheConfig struct {
	Path      string `mapstructure:"path" json:"path"`
	UseCached bool   `mapstructure:"use_cached" json:"use_cached"` // true时跳过页面发现,直接读取缓存
}

// Validate 验证配置
func (c *CacheConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("缓存文件路径不能为空")
	}
	return nil
}
