package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// ResolvePageURL 将href相对于base解析为绝对页面URL并去掉片段(#...)
// 同一页面的不同锚点视为同一个页面
func ResolvePageURL(base *url.URL, href string) (string, error) {
	// 浏览器会忽略href首尾的空白
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("不支持的协议: %s", abs.Scheme)
	}
	return abs.String(), nil
}

// FilenameFromURL 返回URL路径的最后一段,作为本地文件名
// 查询参数不参与命名; 路径以"/"结尾时返回错误
func FilenameFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("无效的URL: %w", err)
	}
	name := path.Base(parsed.Path)
	if parsed.Path == "" || name == "/" || name == "." || name == ".." || parsed.Path[len(parsed.Path)-1] == '/' {
		return "", fmt.Errorf("无法从URL确定文件名: %s", rawURL)
	}
	return name, nil
}
