package models

import (
	"encoding/json"
	"time"
)

// DownloadStatus 单个文件的下载结果
type DownloadStatus string

const (
	DownloadSucceeded DownloadStatus = "success"
	DownloadFailed    DownloadStatus = "failed"
)

// DownloadResult 下载池中每个目标URL对应一条结果
type DownloadResult struct {
	URL    string         `json:"url"`
	Status DownloadStatus `json:"status"`

	// 成功时有效
	Filename string `json:"filename,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"` // 由首块内容探测,仅供参考

	// 失败时有效
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`

	Duration float64 `json:"duration"` // 秒
}

// Succeeded 是否下载成功
func (r DownloadResult) Succeeded() bool {
	return r.Status == DownloadSucceeded
}

// Message 单行结果描述,用于终端汇总
func (r DownloadResult) Message() string {
	if r.Succeeded() {
		return "Downloaded '" + r.Filename + "'"
	}
	return "Unsuccessful attempt to get '" + r.URL + "': " + r.Error
}

// DownloadReport 一次批量下载的完整报告
type DownloadReport struct {
	RunID        string           `json:"run_id"`
	OutputDir    string           `json:"output_dir"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	Duration     float64          `json:"duration"` // 秒
	Total        int              `json:"total"`
	SuccessCount int              `json:"success_count"`
	FailCount    int              `json:"fail_count"`
	TotalSize    int64            `json:"total_size"`
	Results      []DownloadResult `json:"results"` // 按URL排序
}

// Tally 根据Results重新计算计数
func (r *DownloadReport) Tally() {
	r.Total = len(r.Results)
	r.SuccessCount, r.FailCount, r.TotalSize = 0, 0, 0
	for _, res := range r.Results {
		if res.Succeeded() {
			r.SuccessCount++
			r.TotalSize += res.Size
		} else {
			r.FailCount++
		}
	}
}

// Failures 返回失败的结果
func (r *DownloadReport) Failures() []DownloadResult {
	failed := make([]DownloadResult, 0, r.FailCount)
	for _, res := range r.Results {
		if !res.Succeeded() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Successes 返回成功的结果
func (r *DownloadReport) Successes() []DownloadResult {
	ok := make([]DownloadResult, 0, r.SuccessCount)
	for _, res := range r.Results {
		if res.Succeeded() {
			ok = append(ok, res)
		}
	}
	return ok
}

// ToJSON 序列化为JSON
func (r *DownloadReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
