package core

import (
	"errors"
	"testing"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("默认头部存在", func(t *testing.T) {
		hm, err := NewHeaderManager("", nil, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		if headers.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("期望默认User-Agent, 实际='%s'", headers.Get("User-Agent"))
		}
		if headers.Get("Accept") == "" {
			t.Error("期望默认Accept存在")
		}
	})

	t.Run("配置的User-Agent替换默认值", func(t *testing.T) {
		hm, err := NewHeaderManager("SheetHarvest/1.0", nil, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}
		if ua := hm.GetMergedHeaders().Get("User-Agent"); ua != "SheetHarvest/1.0" {
			t.Errorf("期望User-Agent='SheetHarvest/1.0', 实际='%s'", ua)
		}
	})

	t.Run("优先级 默认<配置<命令行", func(t *testing.T) {
		configHeaders := map[string]string{
			"accept":   "text/html",
			"x-source": "config",
			"referer":  "https://example.com/",
		}
		cliHeaders := []string{
			"X-Source: cli",
			"Authorization: Bearer token123",
		}

		hm, err := NewHeaderManager("", configHeaders, cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		tests := []struct {
			name string
			want string
		}{
			{"Accept", "text/html"},
			{"X-Source", "cli"},
			{"Referer", "https://example.com/"},
			{"Authorization", "Bearer token123"},
			{"User-Agent", DefaultUserAgent},
		}
		for _, tt := range tests {
			if got := headers.Get(tt.name); got != tt.want {
				t.Errorf("%s = '%s', want '%s'", tt.name, got, tt.want)
			}
		}
	})

	t.Run("命令行格式错误", func(t *testing.T) {
		if _, err := NewHeaderManager("", nil, []string{"NoColon"}); err == nil {
			t.Error("缺少冒号应返回错误")
		}
	})
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	hm, err := NewHeaderManager("", map[string]string{"cookie": "session=abcdef123456"}, []string{
		"Authorization: Bearer secret-token-12345",
		"X-API-Key: api-key-67890",
	})
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	safe := hm.GetSafeHeaders()
	if safe["Authorization"] != "Bearer ***" {
		t.Errorf("Authorization未脱敏: %s", safe["Authorization"])
	}
	if safe["X-Api-Key"] == "api-key-67890" {
		t.Error("X-API-Key未脱敏")
	}
	if safe["Cookie"] == "session=abcdef123456" {
		t.Error("Cookie未脱敏")
	}
	if safe["User-Agent"] != DefaultUserAgent {
		t.Error("非敏感头部不应脱敏")
	}
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("合法头部", func(t *testing.T) {
		hm, err := NewHeaderManager("", nil, []string{"X-Custom: value"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders()失败: %v", err)
		}
		if headers.Get("X-Custom") != "value" {
			t.Error("X-Custom未正确设置")
		}

		// 返回副本, 调用方修改不影响后续请求
		headers.Set("X-Custom", "changed")
		again, _ := hm.GetHeaders()
		if again.Get("X-Custom") != "value" {
			t.Error("GetHeaders()应返回副本")
		}
	})

	tests := []struct {
		name          string
		configHeaders map[string]string
		cliHeaders    []string
	}{
		{"命令行禁止的头部", nil, []string{"Host: evil.com"}},
		{"配置中禁止的头部", map[string]string{"content-length": "10"}, nil},
		{"非法头部名称", nil, []string{"Bad Name: v"}},
		{"非法头部值", map[string]string{"x-ctl": "a\x01b"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm, err := NewHeaderManager("", tt.configHeaders, tt.cliHeaders)
			if err != nil {
				t.Fatalf("创建HeaderManager失败: %v", err)
			}

			_, err = hm.GetHeaders()
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("期望ValidationError, 实际 %v", err)
			}
		})
	}
}
