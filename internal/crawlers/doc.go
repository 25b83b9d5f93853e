// Package crawlers 实现表格文件的页面发现与批量下载
//
// 发现阶段:
//   - SiteWalker 抓取根列表页,按栏目标记提取栏目入口
//   - PageCrawler 从每个入口沿 "Statistics: " 类子页面链接深度优先遍历
//   - 全部栏目共享一个 VisitedSet,每个页面一次运行内最多抓取一次
//
// 页面抓取通过 PageFetcher 接口完成:
//   - CollyFetcher: 静态HTML (默认)
//   - RenderFetcher: go-rod 无头浏览器渲染
//
// 下载阶段由 Downloader 以有界并发池完成,单个文件失败只体现在报告中。
package crawlers
