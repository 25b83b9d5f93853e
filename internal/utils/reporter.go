package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 下载报告生成器
type Reporter struct {
	reportDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportDir string) *Reporter {
	return &Reporter{reportDir: reportDir}
}

// GenerateReport 写出完整报告以及成功/失败文件列表
func (r *Reporter) GenerateReport(report *models.DownloadReport) error {
	if err := os.MkdirAll(r.reportDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	files := []struct {
		name string
		data interface{}
	}{
		{"download_report.json", report},
		{"success_files.json", report.Successes()},
		{"failed_files.json", report.Failures()},
	}
	for _, f := range files {
		if err := r.saveJSONReport(f.name, f.data); err != nil {
			return err
		}
	}

	Infof("✅ 报告已生成: %s", r.ReportPath())
	return nil
}

// ReportPath 主报告文件路径
func (r *Reporter) ReportPath() string {
	return filepath.Join(r.reportDir, "download_report.json")
}

func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	path := filepath.Join(r.reportDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// PrintSummary 打印每个文件的结果(已排序)和汇总
func PrintSummary(w io.Writer, report *models.DownloadReport) {
	for _, res := range report.Results {
		if res.Succeeded() {
			fmt.Fprintf(w, "✅ %s\n", res.Message())
		} else {
			fmt.Fprintf(w, "❌ %s\n", res.Message())
		}
	}
	fmt.Fprintln(w, "\n==================================================")
	fmt.Fprintln(w, "📊 下载统计")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "📄 文件总数: %d\n", report.Total)
	fmt.Fprintf(w, "✅ 成功: %d\n", report.SuccessCount)
	fmt.Fprintf(w, "❌ 失败: %d\n", report.FailCount)
	fmt.Fprintf(w, "📦 总大小: %.2f MB\n", float64(report.TotalSize)/(1024*1024))
	fmt.Fprintf(w, "⏱️  总耗时: %.2f秒\n", report.Duration)
	fmt.Fprintln(w, "==================================================")
}

// NewProgressBar 创建进度条, out为nil时不输出
func NewProgressBar(max int, description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		out = io.Discard
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// NewSpinner 创建不定长进度指示(页面发现阶段使用)
func NewSpinner(description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		out = io.Discard
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
