package crawlers

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// newURLSet 创建URL集合
// 发现阶段是单线程的,统一使用非线程安全集合(不同实现的集合之间不能做Union/Difference)
func newURLSet(urls ...string) mapset.Set[string] {
	return mapset.NewThreadUnsafeSet[string](urls...)
}

// parseDocument 解析HTML
func parseDocument(content []byte, operation string) (*goquery.Document, error) {
	if len(content) == 0 {
		return nil, &models.MissingContentError{Operation: operation}
	}
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ExtractMarkedLinks 提取href中包含任一标记的链接
// 标记匹配不区分大小写、按子串匹配; 命中的href相对于baseURL解析为绝对URL
func ExtractMarkedLinks(baseURL string, content []byte, markers []string) (mapset.Set[string], error) {
	doc, err := parseDocument(content, "ExtractMarkedLinks")
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("解析baseURL失败: %w", err)
	}

	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		lowered = append(lowered, strings.ToLower(m))
	}

	links := newURLSet()
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		lowerHref := strings.ToLower(href)
		for _, marker := range lowered {
			if !strings.Contains(lowerHref, marker) {
				continue
			}
			ref, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				utils.Debugf("跳过无法解析的链接: %s (%v)", href, err)
				return
			}
			links.Add(base.ResolveReference(ref).String())
			return
		}
	})

	return links, nil
}

// ExtractSubpageLinks 提取链接文本以labelPrefix开头的原始href
// 隐藏菜单里的链接同样会被提取; 返回的href尚未解析为绝对URL
func ExtractSubpageLinks(content []byte, labelPrefix string) (mapset.Set[string], error) {
	doc, err := parseDocument(content, "ExtractSubpageLinks")
	if err != nil {
		return nil, err
	}

	hrefs := newURLSet()
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimLeftFunc(s.Text(), unicode.IsSpace)
		if !strings.HasPrefix(label, labelPrefix) {
			return
		}
		if href, ok := s.Attr("href"); ok && href != "" {
			hrefs.Add(href)
		}
	})

	return hrefs, nil
}
