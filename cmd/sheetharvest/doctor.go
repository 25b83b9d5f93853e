package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/SheetHarvest/internal/crawlers"
	"github.com/RecoveryAshes/SheetHarvest/internal/models"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "检查运行环境 (浏览器、下载目录、磁盘空间)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("==============================================")
		fmt.Println("  SheetHarvest 环境检查")
		fmt.Println("==============================================")

		allOK := true

		fmt.Printf("✅ Go版本: %s\n", runtime.Version())
		fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

		// render模式需要本地Chromium
		if path, found := launcher.LookPath(); found {
			fmt.Printf("✅ 浏览器: %s\n", path)
		} else if appConfig.Fetch.Mode == models.FetchModeRender {
			fmt.Println("❌ 未找到Chromium/Chrome - render模式不可用")
			allOK = false
		} else {
			fmt.Println("⚠️  未找到Chromium/Chrome - 仅影响render模式")
		}

		dir := appConfig.Download.OutputDir
		if err := checkWritable(dir); err != nil {
			fmt.Printf("❌ 下载目录不可写: %s (%v)\n", dir, err)
			allOK = false
		} else {
			fmt.Printf("✅ 下载目录可写: %s\n", dir)

			if err := crawlers.CheckFreeSpace(dir, appConfig.Download.MinFreeMB); err != nil {
				fmt.Printf("❌ %v\n", err)
				allOK = false
			} else {
				fmt.Println("✅ 磁盘空间检查通过")
			}
		}

		if _, err := os.Stat(appConfig.Cache.Path); err == nil {
			fmt.Printf("✅ URL缓存: %s\n", appConfig.Cache.Path)
		} else if appConfig.Cache.UseCached {
			fmt.Printf("❌ 已启用缓存但缓存文件不存在: %s\n", appConfig.Cache.Path)
			allOK = false
		} else {
			fmt.Printf("⚠️  URL缓存尚未生成: %s\n", appConfig.Cache.Path)
		}

		fmt.Println("==============================================")
		if !allOK {
			return fmt.Errorf("环境检查未通过")
		}
		fmt.Println("✨ 环境检查通过")
		return nil
	},
}

// checkWritable 创建目录并写入一个临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".sheetharvest-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
