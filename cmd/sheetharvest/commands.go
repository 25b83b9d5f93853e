package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/SheetHarvest/internal/config"
	"github.com/RecoveryAshes/SheetHarvest/internal/core"
	"github.com/RecoveryAshes/SheetHarvest/internal/utils"
)

var (
	urlFile   string
	forceInit bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "只执行页面发现, 写入URL缓存并输出目标文件列表",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		harvester := core.NewHarvester(appConfig, headerManager).WithProgress(progressWriter())
		urls, err := harvester.Discover(ctx, appConfig.Cache.UseCached)
		if err != nil {
			return fmt.Errorf("页面发现失败: %w", err)
		}

		for _, u := range urls {
			fmt.Fprintln(os.Stdout, u)
		}
		utils.Infof("共 %d 个目标文件", len(urls))
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "从URL缓存或URL文件批量下载, 不执行页面发现",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		headerManager, err := newHeaderManager()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		harvester := core.NewHarvester(appConfig, headerManager).WithProgress(progressWriter())

		var urls []string
		if urlFile != "" {
			urls, err = utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return err
			}
		} else {
			urls, err = harvester.Discover(ctx, true)
			if err != nil {
				return err
			}
		}

		report, err := harvester.Download(ctx, urls)
		if err != nil {
			return err
		}

		utils.PrintSummary(os.Stdout, report)
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "生成配置文件模板",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if len(args) == 1 {
			path = args[0]
		}

		if err := config.WriteTemplate(path, forceInit); err != nil {
			return err
		}
		fmt.Printf("✅ 配置文件已生成: %s\n", path)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文本文件 (每行一个)")
	initCmd.Flags().BoolVar(&forceInit, "force", false, "覆盖已存在的配置文件")
}
