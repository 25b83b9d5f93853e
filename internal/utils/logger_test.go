package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Level:      "debug",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Info("测试信息日志")
	Warn("测试警告日志")
	Debug("测试调试日志")

	time.Sleep(100 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, mainLogName)
	if _, err := os.Stat(mainLogPath); os.IsNotExist(err) {
		t.Errorf("主日志文件未创建: %s", mainLogPath)
	}
}

func TestErrorLogOnlyContainsErrors(t *testing.T) {
	tempDir := t.TempDir()

	config := DefaultLogConfig()
	config.LogDir = tempDir
	config.Compress = false

	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Info("普通信息-不应进入错误日志")
	Errorf("下载失败: %s", "https://x/a.xls")

	time.Sleep(100 * time.Millisecond)

	content, err := os.ReadFile(filepath.Join(tempDir, errorLogName))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}
	if strings.Contains(string(content), "普通信息") {
		t.Error("错误日志不应包含info级别日志")
	}
	if !strings.Contains(string(content), "https://x/a.xls") {
		t.Error("错误日志应包含error级别日志")
	}

	main, err := os.ReadFile(filepath.Join(tempDir, mainLogName))
	if err != nil {
		t.Fatalf("读取主日志失败: %v", err)
	}
	if !strings.Contains(string(main), "普通信息") {
		t.Error("主日志应包含所有级别")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}
