package models

import (
	"fmt"
	"net/http"
)

// MissingContentError 链接提取时页面内容为空
// 属于调用契约错误: 调用方不应把空的抓取结果交给提取器
type MissingContentError struct {
	// Operation 触发错误的提取操作名称
	Operation string
}

// Error 实现error接口
func (e *MissingContentError) Error() string {
	return fmt.Sprintf("%s: 未提供页面内容", e.Operation)
}

// FetchError 抓取失败
// StatusCode为0表示请求未得到响应(网络错误、超时等),此时Cause保存底层错误
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		if e.Cause == nil {
			return fmt.Sprintf("请求失败 [%s]: 未收到响应", e.URL)
		}
		return fmt.Sprintf("请求失败 [%s]: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("请求失败 [%s]: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ValidationError 头部验证错误
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field      string
	HeaderName string
	Reason     string
	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
