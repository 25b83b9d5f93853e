package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// RenderFetcher 基于headless浏览器的页面抓取器
// 用于链接由脚本生成的页面,返回渲染后的DOM
type RenderFetcher struct {
	browser        *rod.Browser
	timeout        time.Duration
	userAgent      string
	headerProvider models.HeaderProvider
}

// NewRenderFetcher 启动浏览器并连接
func NewRenderFetcher(config models.FetchConfig, headerProvider models.HeaderProvider) (*RenderFetcher, error) {
	utils.Info("🚀 启动headless浏览器...")

	controlURL, err := launcher.New().
		Headless(true).
		Set("ignore-certificate-errors").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	return &RenderFetcher{
		browser:        browser,
		timeout:        config.Timeout,
		userAgent:      config.UserAgent,
		headerProvider: headerProvider,
	}, nil
}

// Fetch 在新标签页中打开URL,等待加载完成后返回HTML
func (f *RenderFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, Cause: fmt.Errorf("创建页面失败: %w", err)}
	}
	defer func() {
		_ = page.Close()
	}()

	if err := f.applyHeaders(page); err != nil {
		return nil, err
	}

	status := 0
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(pageURL); err != nil {
		return nil, &models.FetchError{URL: pageURL, Cause: err}
	}
	waitDocument()

	if status != http.StatusOK {
		return nil, &models.FetchError{URL: pageURL, StatusCode: status, Cause: ctx.Err()}
	}

	if err := page.WaitLoad(); err != nil {
		return nil, &models.FetchError{URL: pageURL, StatusCode: status, Cause: err}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, StatusCode: status, Cause: err}
	}

	utils.Debugf("渲染完成: %s (%d bytes)", pageURL, len(html))
	return []byte(html), nil
}

// applyHeaders 设置页面请求头
// fetch.user_agent优先, 否则使用HeaderProvider中的User-Agent
func (f *RenderFetcher) applyHeaders(page *rod.Page) error {
	headers := http.Header{}
	if f.headerProvider != nil {
		h, err := f.headerProvider.GetHeaders()
		if err != nil {
			return fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		headers = h
	}

	userAgent := f.userAgent
	if userAgent == "" {
		userAgent = headers.Get("User-Agent")
	}
	if userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
			return fmt.Errorf("设置User-Agent失败: %w", err)
		}
	}

	var dict []string
	for name, values := range headers {
		// 压缩协商交给浏览器
		if name == "User-Agent" || name == "Accept-Encoding" {
			continue
		}
		for _, value := range values {
			dict = append(dict, name, value)
		}
	}
	if len(dict) == 0 {
		return nil
	}
	if _, err := page.SetExtraHeaders(dict); err != nil {
		return fmt.Errorf("设置HTTP头部失败: %w", err)
	}
	return nil
}

// Close 关闭浏览器
func (f *RenderFetcher) Close() error {
	if f.browser == nil {
		return nil
	}
	utils.Debug("关闭headless浏览器")
	return f.browser.Close()
}
