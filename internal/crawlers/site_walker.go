package crawlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"sort"
	"time"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// WalkStats 一次页面发现的统计
type WalkStats struct {
	Sections     int           `json:"sections"`
	PagesFetched int           `json:"pages_fetched"`
	PagesVisited int           `json:"pages_visited"`
	MaxDepth     int           `json:"max_depth"`
	Targets      int           `json:"targets"`
	Duration     time.Duration `json:"duration"`
}

// SiteWalker 从根列表页出发,遍历全部栏目并汇总目标文件URL
type SiteWalker struct {
	fetcher   PageFetcher
	site      models.SiteConfig
	cachePath string
	progress  io.Writer
	stats     WalkStats
}

// NewSiteWalker 创建站点遍历器
func NewSiteWalker(fetcher PageFetcher, site models.SiteConfig, cachePath string) *SiteWalker {
	return &SiteWalker{
		fetcher:   fetcher,
		site:      site,
		cachePath: cachePath,
	}
}

// WithProgress 在out上显示发现进度
func (w *SiteWalker) WithProgress(out io.Writer) *SiteWalker {
	w.progress = out
	return w
}

// Run 执行一次完整的页面发现,返回按字典序排序的目标文件URL
func (w *SiteWalker) Run(ctx context.Context) ([]string, error) {
	start := time.Now()
	root := w.site.RootURL
	utils.Infof("🔍 开始页面发现: %s", root)

	content, err := w.fetcher.Fetch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("抓取根列表页失败: %w", err)
	}

	sectionLinks, err := ExtractMarkedLinks(root, content, w.site.SectionMarkers)
	if err != nil {
		return nil, fmt.Errorf("提取栏目链接失败: %w", err)
	}

	rootBase, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("解析根列表页URL失败: %w", err)
	}
	// 栏目URL与子页面URL使用同一种规范形式,保证已访问判断一致
	normalized := newURLSet()
	for _, link := range sectionLinks.ToSlice() {
		pageURL, err := models.ResolvePageURL(rootBase, link)
		if err != nil {
			utils.Debugf("忽略栏目链接 %q: %v", link, err)
			continue
		}
		normalized.Add(pageURL)
	}
	sections := normalized.ToSlice()
	sort.Strings(sections)
	utils.Infof("发现 %d 个栏目", len(sections))

	crawler := NewPageCrawler(w.fetcher, w.site)
	spinner := utils.NewSpinner("🔍 页面发现中", w.progress)
	crawler.OnPage = func(string) {
		_ = spinner.Add(1)
	}

	visited := NewVisitedSet()
	targets := newURLSet()
	for i, section := range sections {
		if visited.IsVisited(section) {
			utils.Debugf("栏目 %s 已在其他栏目中访问过,跳过", section)
			continue
		}
		utils.Infof("[%d/%d] 爬取栏目: %s", i+1, len(sections), section)

		found, err := crawler.Visit(ctx, section, visited)
		if err != nil {
			_ = spinner.Finish()
			return nil, fmt.Errorf("爬取栏目失败 [%s]: %w", section, err)
		}
		targets.Append(found.ToSlice()...)
	}
	_ = spinner.Finish()

	urls := targets.ToSlice()
	sort.Strings(urls)

	w.stats = WalkStats{
		Sections:     len(sections),
		PagesFetched: crawler.PagesFetched(),
		PagesVisited: visited.Len(),
		MaxDepth:     crawler.MaxDepth(),
		Targets:      len(urls),
		Duration:     time.Since(start),
	}
	utils.Infof("✅ 页面发现完成: %d 个栏目, %d 个页面(已访问 %d), %d 个目标文件, 耗时 %s",
		w.stats.Sections, w.stats.PagesFetched, w.stats.PagesVisited, w.stats.Targets, w.stats.Duration.Round(time.Millisecond))

	return urls, nil
}

// Resolve 获取目标文件URL列表
// useCache为true时读取缓存文件(不存在即报错),否则执行页面发现并覆盖缓存
func (w *SiteWalker) Resolve(ctx context.Context, useCache bool) ([]string, error) {
	if useCache {
		urls, err := models.LoadURLList(w.cachePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("URL缓存文件不存在: %s (请先在不使用缓存的情况下运行一次): %w", w.cachePath, err)
			}
			return nil, fmt.Errorf("读取URL缓存失败: %w", err)
		}
		utils.Infof("📂 从缓存加载 %d 个目标URL: %s", len(urls), w.cachePath)
		return urls, nil
	}

	urls, err := w.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := models.SaveURLList(w.cachePath, urls); err != nil {
		return nil, fmt.Errorf("写入URL缓存失败: %w", err)
	}
	utils.Infof("💾 URL列表已缓存: %s", w.cachePath)
	return urls, nil
}

// Stats 返回最近一次Run的统计
func (w *SiteWalker) Stats() WalkStats {
	return w.stats
}
