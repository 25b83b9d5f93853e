package crawlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

const (
	// DefaultConcurrency 默认下载并发数
	DefaultConcurrency = 64

	// DefaultChunkSize 默认写入块大小
	DefaultChunkSize = 1024

	// sniffLen 用于MIME探测的前缀长度
	sniffLen = 3072
)

// Downloader 有界并发的文件下载池
type Downloader struct {
	client         *http.Client
	headerProvider models.HeaderProvider
	chunkSize      int
	minFreeMB      int
	progress       io.Writer
}

// NewDownloader 创建下载池
func NewDownloader(config models.DownloadConfig, headerProvider models.HeaderProvider) *Downloader {
	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = DefaultConcurrency

	return &Downloader{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		headerProvider: headerProvider,
		chunkSize:      chunkSize,
		minFreeMB:      config.MinFreeMB,
	}
}

// WithProgress 在out上显示下载进度条
func (d *Downloader) WithProgress(out io.Writer) *Downloader {
	d.progress = out
	return d
}

// DownloadAll 并发下载全部URL到destDir
//
// 只有目录创建失败、磁盘空间不足或头部获取失败会返回错误;
// 单个文件的失败记录在报告中,不影响其他文件。报告中的结果按URL排序。
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, destDir string, concurrency int) (*models.DownloadReport, error) {
	start := time.Now()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("创建下载目录失败: %w", err)
	}
	if err := CheckFreeSpace(destDir, d.minFreeMB); err != nil {
		return nil, err
	}

	headers, err := d.requestHeaders()
	if err != nil {
		return nil, err
	}

	if concurrency < 1 {
		concurrency = 1
	}

	report := &models.DownloadReport{
		RunID:     uuid.New().String(),
		OutputDir: destDir,
		StartTime: start,
		Results:   []models.DownloadResult{},
	}

	if len(urls) > 0 {
		utils.Infof("📥 开始下载 %d 个文件 (并发 %d): %s", len(urls), concurrency, destDir)

		bar := utils.NewProgressBar(len(urls), "📥 下载中", d.progress)
		p := pool.NewWithResults[models.DownloadResult]().WithMaxGoroutines(concurrency)
		for _, u := range urls {
			u := u
			p.Go(func() models.DownloadResult {
				res := d.downloadOne(ctx, u, destDir, headers)
				_ = bar.Add(1)
				return res
			})
		}
		results := p.Wait()
		_ = bar.Finish()

		sort.SliceStable(results, func(i, j int) bool {
			return results[i].URL < results[j].URL
		})
		report.Results = results
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(start).Seconds()
	report.Tally()

	utils.Infof("下载完成: 成功 %d, 失败 %d, 耗时 %.2f秒", report.SuccessCount, report.FailCount, report.Duration)
	return report, nil
}

func (d *Downloader) requestHeaders() (http.Header, error) {
	if d.headerProvider == nil {
		return http.Header{}, nil
	}
	headers, err := d.headerProvider.GetHeaders()
	if err != nil {
		return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
	}
	headers = headers.Clone()
	// 由net/http自动协商并解压
	headers.Del("Accept-Encoding")
	return headers, nil
}

// downloadOne 下载单个文件, 任何错误都转换为失败结果
func (d *Downloader) downloadOne(ctx context.Context, fileURL, destDir string, headers http.Header) (result models.DownloadResult) {
	start := time.Now()
	result = models.DownloadResult{URL: fileURL, Status: models.DownloadFailed}
	defer func() {
		result.Duration = time.Since(start).Seconds()
		if !result.Succeeded() {
			utils.Warnf("下载失败 [%s]: %s", fileURL, result.Error)
		}
	}()

	filename, err := models.FilenameFromURL(fileURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		result.Error = (&models.FetchError{URL: fileURL, Cause: err}).Error()
		return result
	}
	req.Header = headers.Clone()

	resp, err := d.client.Do(req)
	if err != nil {
		result.Error = (&models.FetchError{URL: fileURL, Cause: err}).Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.StatusCode = resp.StatusCode
		result.Error = (&models.FetchError{URL: fileURL, StatusCode: resp.StatusCode}).Error()
		return result
	}

	filePath := filepath.Join(destDir, filename)
	size, mimeType, err := d.writeChunks(resp.Body, filePath)
	if err != nil {
		result.StatusCode = resp.StatusCode
		result.Error = err.Error()
		return result
	}

	result.Status = models.DownloadSucceeded
	result.StatusCode = resp.StatusCode
	result.Filename = filename
	result.FilePath = filePath
	result.Size = size
	result.MimeType = mimeType
	utils.Debugf("下载成功: %s -> %s (%d bytes, %s)", fileURL, filePath, size, mimeType)
	return result
}

// writeChunks 按固定块大小把响应体写入文件,返回写入字节数和探测到的MIME类型。
// 创建成功后出错会删除本次创建的残缺文件;创建失败时不触碰已有路径。
func (d *Downloader) writeChunks(body io.Reader, filePath string) (int64, string, error) {
	out, err := os.Create(filePath)
	if err != nil {
		return 0, "", fmt.Errorf("创建文件失败: %w", err)
	}

	buf := make([]byte, d.chunkSize)
	sniff := make([]byte, 0, sniffLen)
	var written int64

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if len(sniff) < sniffLen {
				sniff = append(sniff, buf[:min(n, sniffLen-len(sniff))]...)
			}
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				_ = os.Remove(filePath)
				return written, "", fmt.Errorf("写入文件失败: %w", err)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			_ = os.Remove(filePath)
			return written, "", fmt.Errorf("读取响应失败: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(filePath)
		return written, "", fmt.Errorf("关闭文件失败: %w", err)
	}

	return written, mimetype.Detect(sniff).String(), nil
}
