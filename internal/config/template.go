package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed config_template.yaml
var defaultTemplate string

// WriteTemplate 将配置模板写入path
// 文件已存在且未指定force时返回错误
func WriteTemplate(path string, force bool) error {
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("配置文件已存在: %s (使用 --force 覆盖)", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(defaultTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", path, err)
	}
	return nil
}
