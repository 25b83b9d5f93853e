package core

import (
	"net/http"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// HeaderManager 管理HTTP请求头部
// 实现 models.HeaderProvider 接口, 页面抓取与文件下载共用
type HeaderManager struct {
	// defaults 系统默认头部
	defaults http.Header

	// config 配置文件 fetch.headers
	config http.Header

	// cli 命令行 -H 参数
	cli http.Header

	validator *utils.HeaderValidator

	// merged 验证通过后缓存的合并结果
	merged http.Header
}

// NewHeaderManager 创建头部管理器
// 参数:
//   - userAgent: fetch.user_agent, 为空时使用DefaultUserAgent
//   - configHeaders: 配置文件中的 fetch.headers
//   - cliHeaders: 命令行传递的 "Name: Value" 列表
func NewHeaderManager(userAgent string, configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  getDefaultHeaders(userAgent),
		config:    make(http.Header),
		validator: utils.NewHeaderValidator(),
	}

	for name, value := range configHeaders {
		hm.config.Set(name, value)
	}

	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	hm.cli = cli

	return hm, nil
}

// getDefaultHeaders 返回系统默认头部
func getDefaultHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return http.Header{
		"User-Agent":      []string{userAgent},
		"Accept":          []string{"*/*"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// Validate 验证所有头部的合法性
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.defaults); err != nil {
		utils.Errorf("默认头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return err
	}

	utils.Debugf("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)

	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}

	return result
}

// GetSafeHeaders 返回脱敏后的头部 (用于日志和 --validate-config)
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return utils.RedactHeaders(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 首次调用时验证, 之后返回缓存结果的副本
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if hm.merged == nil {
		if err := hm.Validate(); err != nil {
			return nil, err
		}
		hm.merged = hm.GetMergedHeaders()

		utils.Debugf("生效的HTTP头部: %v", hm.GetSafeHeaders())
	}

	return hm.merged.Clone(), nil
}
