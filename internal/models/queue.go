package models

// PageItem 页面爬取工作栈中的一项
type PageItem struct {
	// URL 绝对页面URL(已去掉片段)
	URL string

	// Depth 相对于栏目入口页的层级
	//   - 0: 栏目入口页
	//   - 1: 从入口页的 "Statistics: " 链接发现的子页面
	//   - 以此类推...
	Depth int

	// SourceURL 发现此页面的来源页(入口页为空,用于调试日志)
	SourceURL string
}
