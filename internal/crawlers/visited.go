package crawlers

import mapset "github.com/deckarep/golang-set/v2"

// VisitedSet 一次运行内已处理页面的集合
// 页面在抓取之前加入,之后不会移除; 这是阻止循环链接导致重复爬取的唯一机制
//
// 发现阶段单线程执行,VisitedSet不做并发保护
type VisitedSet struct {
	pages mapset.Set[string]
}

// NewVisitedSet 创建空的已访问集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{pages: newURLSet()}
}

// MarkVisited 标记页面为已访问
// 返回false表示该页面此前已被标记
func (v *VisitedSet) MarkVisited(pageURL string) bool {
	return v.pages.Add(pageURL)
}

// IsVisited 检查页面是否已访问
func (v *VisitedSet) IsVisited(pageURL string) bool {
	return v.pages.Contains(pageURL)
}

// Len 已访问页面数量
func (v *VisitedSet) Len() int {
	return v.pages.Cardinality()
}

// Unvisited 返回candidates中尚未访问的页面
func (v *VisitedSet) Unvisited(candidates mapset.Set[string]) mapset.Set[string] {
	return candidates.Difference(v.pages)
}
