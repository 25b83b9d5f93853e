package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/SheetHarvest/internal/config"
	"github.com/RecoveryAshes/SheetHarvest/internal/crawlers"
	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// FetcherFactory 创建页面抓取器
type FetcherFactory func(models.FetchConfig, models.HeaderProvider) (crawlers.PageFetcher, error)

// Harvester 主流程协调器: 页面发现 → 批量下载 → 报告
type Harvester struct {
	config         *config.Config
	headerProvider models.HeaderProvider
	newFetcher     FetcherFactory
	progress       io.Writer

	walkStats crawlers.WalkStats
}

// NewHarvester 创建协调器
func NewHarvester(cfg *config.Config, headerProvider models.HeaderProvider) *Harvester {
	return &Harvester{
		config:         cfg,
		headerProvider: headerProvider,
		newFetcher:     crawlers.NewPageFetcher,
	}
}

// WithProgress 在out上显示发现和下载进度
func (h *Harvester) WithProgress(out io.Writer) *Harvester {
	h.progress = out
	return h
}

// WithFetcherFactory 替换页面抓取器的创建方式
func (h *Harvester) WithFetcherFactory(factory FetcherFactory) *Harvester {
	h.newFetcher = factory
	return h
}

// Discover 获取目标文件URL列表
// useCache为true时只读缓存, 不启动抓取器
func (h *Harvester) Discover(ctx context.Context, useCache bool) ([]string, error) {
	if useCache {
		walker := crawlers.NewSiteWalker(nil, h.config.Site, h.config.Cache.Path)
		return walker.Resolve(ctx, true)
	}

	utils.Infof("抓取模式: %s", h.config.Fetch.Mode)
	fetcher, err := h.newFetcher(h.config.Fetch, h.headerProvider)
	if err != nil {
		return nil, fmt.Errorf("创建页面抓取器失败: %w", err)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			utils.Warnf("关闭页面抓取器失败: %v", err)
		}
	}()

	walker := crawlers.NewSiteWalker(fetcher, h.config.Site, h.config.Cache.Path).
		WithProgress(h.progress)
	urls, err := walker.Resolve(ctx, false)
	if err != nil {
		return nil, err
	}
	h.walkStats = walker.Stats()
	return urls, nil
}

// Download 下载全部URL并生成报告
// 报告写入失败只记录警告
func (h *Harvester) Download(ctx context.Context, urls []string) (*models.DownloadReport, error) {
	downloader := crawlers.NewDownloader(h.config.Download, h.headerProvider).
		WithProgress(h.progress)

	report, err := downloader.DownloadAll(ctx, urls, h.config.Download.OutputDir, h.config.Download.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("批量下载失败: %w", err)
	}

	if h.config.Report.Dir != "" {
		reporter := utils.NewReporter(h.config.Report.Dir)
		if err := reporter.GenerateReport(report); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}
	}

	return report, nil
}

// Run 执行完整流程
// 执行流程:
//  1. 读取缓存或执行页面发现 (发现失败直接返回错误)
//  2. 有界并发下载全部目标文件
//  3. 生成下载报告
func (h *Harvester) Run(ctx context.Context) (*models.DownloadReport, error) {
	start := time.Now()

	utils.Infof("🚀 开始采集任务")
	utils.Infof("根列表页: %s", h.config.Site.RootURL)
	utils.Infof("下载目录: %s", h.config.Download.OutputDir)

	urls, err := h.Discover(ctx, h.config.Cache.UseCached)
	if err != nil {
		return nil, fmt.Errorf("页面发现失败: %w", err)
	}

	report, err := h.Download(ctx, urls)
	if err != nil {
		return nil, err
	}

	utils.Infof("✅ 采集任务完成, 总耗时: %.2f秒", time.Since(start).Seconds())
	return report, nil
}

// WalkStats 返回最近一次页面发现的统计 (读取缓存时为空)
func (h *Harvester) WalkStats() crawlers.WalkStats {
	return h.walkStats
}
