package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

// PageFetcher 按URL抓取页面HTML
// 只有HTTP 200视为成功,其余情况返回*models.FetchError
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
	Close() error
}

// NewPageFetcher 根据抓取模式创建页面抓取器
func NewPageFetcher(config models.FetchConfig, headerProvider models.HeaderProvider) (PageFetcher, error) {
	switch config.Mode {
	case models.FetchModeStatic, "":
		return NewCollyFetcher(config, headerProvider), nil
	case models.FetchModeRender:
		return NewRenderFetcher(config, headerProvider)
	default:
		return nil, fmt.Errorf("无效的抓取模式: %s", config.Mode)
	}
}

const (
	ctxKeyBody = "sheetharvest.body"
	ctxKeyErr  = "sheetharvest.err"
)

// CollyFetcher 基于Colly的静态页面抓取器
// 每次Fetch是一次同步请求,结果通过请求级colly.Context带回
type CollyFetcher struct {
	collector      *colly.Collector
	headerProvider models.HeaderProvider
}

// NewCollyFetcher 创建静态页面抓取器
func NewCollyFetcher(config models.FetchConfig, headerProvider models.HeaderProvider) *CollyFetcher {
	// 访问去重由VisitedSet负责,Colly自身必须允许重复访问
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(0),
	)
	if config.UserAgent != "" {
		c.UserAgent = config.UserAgent
	}

	// 非2xx响应也交给OnResponse,由这里统一判定状态码
	c.ParseHTTPErrorResponse = true

	if config.Timeout > 0 {
		c.SetRequestTimeout(config.Timeout)
	}

	c.OnResponse(func(r *colly.Response) {
		pageURL := r.Request.URL.String()
		if r.StatusCode != http.StatusOK {
			r.Ctx.Put(ctxKeyErr, &models.FetchError{URL: pageURL, StatusCode: r.StatusCode})
			return
		}

		body := r.Body
		if r.Headers != nil {
			decoded, err := decodeBody(r.Headers.Get("Content-Encoding"), r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s]: %v", pageURL, err)
			} else {
				body = decoded
			}
		}
		r.Ctx.Put(ctxKeyBody, body)
		utils.Debugf("抓取成功: %s (%d bytes)", pageURL, len(body))
	})

	c.OnError(func(r *colly.Response, err error) {
		r.Ctx.Put(ctxKeyErr, &models.FetchError{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Cause:      err,
		})
	})

	return &CollyFetcher{
		collector:      c,
		headerProvider: headerProvider,
	}
}

// Fetch 抓取单个页面
func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var hdr http.Header
	if f.headerProvider != nil {
		headers, err := f.headerProvider.GetHeaders()
		if err != nil {
			return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		hdr = headers.Clone()
	}

	reqCtx := colly.NewContext()
	reqErr := f.collector.Request(http.MethodGet, pageURL, nil, reqCtx, hdr)

	if fe, ok := reqCtx.GetAny(ctxKeyErr).(*models.FetchError); ok {
		return nil, fe
	}
	if reqErr != nil {
		return nil, &models.FetchError{URL: pageURL, Cause: reqErr}
	}

	body, _ := reqCtx.GetAny(ctxKeyBody).([]byte)
	return body, nil
}

// Close 静态抓取器无需释放资源
func (f *CollyFetcher) Close() error {
	return nil
}

// decodeBody 根据Content-Encoding解压响应体
// Colly已自行处理gzip,这里只在内容仍带gzip魔数时再解一次
func decodeBody(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "br":
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decoded, nil

	case "deflate":
		// RFC 9110的deflate是zlib封装,部分服务器直接发送裸deflate流
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			decoded, err := io.ReadAll(zr)
			zr.Close()
			if err == nil {
				return decoded, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		decoded, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decoded, nil

	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer gr.Close()
		decoded, err := io.ReadAll(gr)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decoded, nil

	default:
		return body, nil
	}
}
