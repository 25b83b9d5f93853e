package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/SheetHarvest/internal/config"
	"github.com/RecoveryAshes/SheetHarvest/internal/core"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string
	noProgress bool

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 发现参数
	rootURL       string
	targetMarkers []string
	fetchMode     string
	fetchTimeout  string
	useCache      bool
	cachePath     string

	// 下载参数
	outputDir string
	threads   int
	chunkSize int
	dlTimeout string
	minFreeMB int
	reportDir string
)

// appConfig 由PersistentPreRunE加载并合并命令行参数
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "sheetharvest",
	Short: "统计门户表格文件批量采集工具",
	Long: `SheetHarvest - 统计数据门户表格文件采集工具

从根列表页出发发现全部栏目, 沿 "Statistics: " 子页面链接递归查找表格文件,
然后以有界并发批量下载:
  • 每个页面一次运行内只抓取一次 (支持互相链接的页面)
  • 发现结果缓存为JSON, 可跳过发现直接下载
  • 静态HTML或无头浏览器两种抓取模式
  • 单个文件失败不影响其他文件, 结果写入报告

示例:
  # 发现并下载 (默认: 新西兰教育部数据栏目, .xls 文件)
  sheetharvest

  # 使用上次的URL缓存, 32个并发下载到指定目录
  sheetharvest --use-cache -t 32 -o ./sheets

  # 只发现, 输出URL列表
  sheetharvest discover --marker .xls --marker .csv

  # 自定义请求头
  sheetharvest -H "Cookie: session=abc" -H "Referer: https://example.com/"

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "init" {
			return nil
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		if err := utils.InitLogger(cfg.Logging.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}
		if src := cfg.Source(); src != "" {
			utils.Debugf("使用配置文件: %s", src)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		appConfig = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		if validateConfig {
			return printValidation(headerManager)
		}

		ctx, stop := signalContext()
		defer stop()

		harvester := core.NewHarvester(appConfig, headerManager).WithProgress(progressWriter())
		report, err := harvester.Run(ctx)
		if err != nil {
			return err
		}

		utils.PrintSummary(os.Stdout, report)
		utils.Info("✨ 采集任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SheetHarvest %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// newHeaderManager 按 默认 < fetch.headers < -H 创建头部管理器
func newHeaderManager() (*core.HeaderManager, error) {
	hm, err := core.NewHeaderManager(appConfig.Fetch.UserAgent, appConfig.Fetch.Headers, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	return hm, nil
}

// printValidation 验证头部并输出生效的配置 (敏感值脱敏)
func printValidation(hm *core.HeaderManager) error {
	utils.Info("🔍 验证配置...")
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	source := appConfig.Source()
	if source == "" {
		source = "(默认配置)"
	}
	fmt.Printf("✅ 配置验证通过: %s\n", source)
	fmt.Printf("根列表页: %s\n", appConfig.Site.RootURL)
	fmt.Printf("栏目标记: %v\n", appConfig.Site.SectionMarkers)
	fmt.Printf("目标标记: %v\n", appConfig.Site.TargetMarkers)
	fmt.Printf("抓取模式: %s\n", appConfig.Fetch.Mode)
	fmt.Printf("下载目录: %s (并发 %d, 块大小 %d)\n",
		appConfig.Download.OutputDir, appConfig.Download.Concurrency, appConfig.Download.ChunkSize)
	fmt.Printf("URL缓存: %s (使用缓存: %v)\n", appConfig.Cache.Path, appConfig.Cache.UseCached)

	safeHeaders := hm.GetSafeHeaders()
	names := make([]string, 0, len(safeHeaders))
	for name := range safeHeaders {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("当前有效的HTTP头部 (%d个):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, safeHeaders[name])
	}
	return nil
}

// signalContext 收到Ctrl+C或SIGTERM时取消context
// 页面发现在下一次抓取前停止, 进行中的下载被中断并记为失败
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			utils.Warnf("收到中断信号: %v, 正在停止...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// progressWriter 进度条输出位置, --no-progress时为nil
func progressWriter() io.Writer {
	if noProgress {
		return nil
	}
	return os.Stderr
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认搜索 ./configs, ., ~/.sheetharvest)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式 (等同 --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置并显示生效的设置")

	// 发现参数
	rootCmd.PersistentFlags().StringVarP(&rootURL, "root", "u", "", "根列表页URL")
	rootCmd.PersistentFlags().StringSliceVar(&targetMarkers, "marker", nil, "目标文件链接标记,可多次指定 (默认 .xls)")
	rootCmd.PersistentFlags().StringVarP(&fetchMode, "mode", "m", "", "页面抓取模式 (static|render)")
	rootCmd.PersistentFlags().StringVar(&fetchTimeout, "fetch-timeout", "", "页面抓取超时 (如 30s)")
	rootCmd.PersistentFlags().BoolVar(&useCache, "use-cache", false, "跳过页面发现, 使用URL缓存")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "URL缓存文件路径")

	// 下载参数
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "下载目录")
	rootCmd.PersistentFlags().IntVarP(&threads, "threads", "t", 0, "下载并发数 (1-256)")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0, "写入块大小(字节)")
	rootCmd.PersistentFlags().StringVar(&dlTimeout, "timeout", "", "单个文件下载超时 (如 2m, 0 表示不限制)")
	rootCmd.PersistentFlags().IntVar(&minFreeMB, "min-free-mb", 0, "下载前要求的最少磁盘剩余空间(MB)")
	rootCmd.PersistentFlags().StringVar(&reportDir, "report-dir", "", "报告输出目录")

	// 添加子命令
	rootCmd.AddCommand(versionCmd, discoverCmd, downloadCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
