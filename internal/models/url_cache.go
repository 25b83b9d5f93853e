package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SaveURLList 将目标URL列表写入缓存文件(JSON字符串数组)
// 写入前排序,保证同一批URL得到相同的文件内容
func SaveURLList(path string, urls []string) error {
	sorted := append([]string(nil), urls...)
	sort.Strings(sorted)

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化URL列表失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建缓存目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadURLList 从缓存文件读取目标URL列表
func LoadURLList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("解析URL缓存失败 [%s]: %w", path, err)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}
