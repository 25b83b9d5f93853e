package crawlers

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// PageCrawler 从一个入口页出发,沿子页面链接深度优先遍历并收集目标文件链接
type PageCrawler struct {
	fetcher            PageFetcher
	targetMarkers      []string
	subpageLabelPrefix string

	// OnPage 每成功抓取一个页面后回调(用于进度显示)
	OnPage func(pageURL string)

	pagesFetched int
	maxDepth     int
}

// NewPageCrawler 创建页面爬取器
func NewPageCrawler(fetcher PageFetcher, site models.SiteConfig) *PageCrawler {
	return &PageCrawler{
		fetcher:            fetcher,
		targetMarkers:      site.TargetMarkers,
		subpageLabelPrefix: site.SubpageLabelPrefix,
	}
}

// Visit 从pageURL开始遍历,返回该子树中发现的全部目标文件URL
//
// 每个页面在抓取前先标记为已访问,因此互相链接或自链接的页面在一次运行中最多抓取一次。
// pageURL已访问时直接返回空集合。任一页面抓取失败都会中止整个遍历并返回错误。
func (pc *PageCrawler) Visit(ctx context.Context, pageURL string, visited *VisitedSet) (mapset.Set[string], error) {
	targets := newURLSet()
	if visited.IsVisited(pageURL) {
		utils.Debugf("页面已访问,跳过: %s", pageURL)
		return targets, nil
	}

	stack := []models.PageItem{{URL: pageURL}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 同一子页面可能在处理前被多个页面压栈
		if !visited.MarkVisited(item.URL) {
			continue
		}

		found, children, err := pc.processPage(ctx, item, visited)
		if err != nil {
			return nil, err
		}
		targets.Append(found.ToSlice()...)

		// 逆序压栈,按字典序先处理较小的URL
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return targets, nil
}

// processPage 抓取单个页面,返回其中的目标链接与尚未访问的子页面
func (pc *PageCrawler) processPage(ctx context.Context, item models.PageItem, visited *VisitedSet) (mapset.Set[string], []models.PageItem, error) {
	if item.SourceURL != "" {
		utils.Infof("处理页面: %s (深度 %d, 来自 %s)", item.URL, item.Depth, item.SourceURL)
	} else {
		utils.Infof("处理页面: %s", item.URL)
	}

	content, err := pc.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("抓取页面失败 [%s]: %w", item.URL, err)
	}
	pc.pagesFetched++
	if item.Depth > pc.maxDepth {
		pc.maxDepth = item.Depth
	}
	if pc.OnPage != nil {
		pc.OnPage(item.URL)
	}

	found, err := ExtractMarkedLinks(item.URL, content, pc.targetMarkers)
	if err != nil {
		return nil, nil, fmt.Errorf("提取目标链接失败 [%s]: %w", item.URL, err)
	}
	if found.Cardinality() > 0 {
		utils.Debugf("页面 %s 发现 %d 个目标文件", item.URL, found.Cardinality())
	}

	hrefs, err := ExtractSubpageLinks(content, pc.subpageLabelPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("提取子页面链接失败 [%s]: %w", item.URL, err)
	}

	base, err := url.Parse(item.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("解析页面URL失败 [%s]: %w", item.URL, err)
	}

	subpages := newURLSet()
	for _, href := range hrefs.ToSlice() {
		abs, err := models.ResolvePageURL(base, href)
		if err != nil {
			utils.Debugf("忽略子页面链接 %q: %v", href, err)
			continue
		}
		subpages.Add(abs)
	}

	fresh := visited.Unvisited(subpages).ToSlice()
	sort.Strings(fresh)

	children := make([]models.PageItem, 0, len(fresh))
	for _, u := range fresh {
		children = append(children, models.PageItem{
			URL:       u,
			Depth:     item.Depth + 1,
			SourceURL: item.URL,
		})
	}

	return found, children, nil
}

// PagesFetched 返回已成功抓取的页面数
func (pc *PageCrawler) PagesFetched() int {
	return pc.pagesFetched
}

// MaxDepth 返回遍历到的最大子页面深度
func (pc *PageCrawler) MaxDepth() int {
	return pc.maxDepth
}
