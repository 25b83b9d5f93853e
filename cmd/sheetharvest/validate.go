package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/SheetHarvest/internal/config"
	"github.com/RecoveryAshes/SheetHarvest/internal/models"
)

// applyFlags 命令行参数覆盖配置文件
// 只覆盖显式指定的参数, 未指定的保留配置文件或默认值
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("root") {
		normalized, err := NormalizeURL(rootURL)
		if err != nil {
			return fmt.Errorf("无效的根列表页URL: %w", err)
		}
		cfg.Site.RootURL = normalized
	}
	if flags.Changed("marker") {
		cfg.Site.TargetMarkers = targetMarkers
	}
	if flags.Changed("mode") {
		cfg.Fetch.Mode = models.FetchMode(fetchMode)
	}
	if flags.Changed("fetch-timeout") {
		d, err := parseDuration("fetch-timeout", fetchTimeout)
		if err != nil {
			return err
		}
		cfg.Fetch.Timeout = d
	}
	if flags.Changed("use-cache") {
		cfg.Cache.UseCached = useCache
	}
	if flags.Changed("cache") {
		cfg.Cache.Path = cachePath
	}

	if flags.Changed("output") {
		cfg.Download.OutputDir = outputDir
	}
	if flags.Changed("threads") {
		cfg.Download.Concurrency = threads
	}
	if flags.Changed("chunk-size") {
		cfg.Download.ChunkSize = chunkSize
	}
	if flags.Changed("timeout") {
		d, err := parseDuration("timeout", dlTimeout)
		if err != nil {
			return err
		}
		cfg.Download.Timeout = d
	}
	if flags.Changed("min-free-mb") {
		cfg.Download.MinFreeMB = minFreeMB
	}
	if flags.Changed("report-dir") {
		cfg.Report.Dir = reportDir
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	} else if verbose {
		cfg.Logging.Level = "debug"
	}

	return nil
}

func parseDuration(flag, value string) (time.Duration, error) {
	if value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("参数 --%s 格式错误 (如 30s, 2m): %w", flag, err)
	}
	return d, nil
}

// NormalizeURL 规范化URL
// 没有协议时默认使用https
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	if err := models.ValidateURL(parsed.String()); err != nil {
		return "", err
	}
	return parsed.String(), nil
}
