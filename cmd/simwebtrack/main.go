package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/SimWebTrack/internal/core"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/spf13/cobra"
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

	// 认证参数
	username   string
	password   string
	useCookies bool

	// 路径参数
	queuePath  string
	ledgerPath string
	cookiePath string

	// 浏览器参数
	headless bool

	// 可达性检查参数
	checkTimeout int
)

var rootCmd = &cobra.Command{
	Use:   "simwebtrack",
	Short: "SimilarWeb网站流量指标抓取工具",
	Long: `SimWebTrack - SimilarWeb网站流量指标自动化抓取工具 (Go版本)

通过浏览器自动化从分析面板提取网站流量指标
(桌面/移动占比、月访问量、跳出率等),支持:
  • Cookie快速登录与账号密码回退
  • 反爬拦截页检测与有界等待
  • 文件队列断点续抓(失败目标下次运行自动重试)
  • 逐行台账增量落盘与卡死熔断
  • 队列目标可达性预检查

凭据通过配置文件、环境变量(SIMWEBTRACK_USERNAME/SIMWEBTRACK_PASSWORD)
或命令行参数提供,不要写死在代码里。

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		config.MergeCLIFlags(username, password, queuePath, ledgerPath, cookiePath, useCookies, headless)

		if err := ValidateFlags(config); err != nil {
			return err
		}

		// Ctrl+C触发context取消,运行器停止取新目标后正常走清理流程
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()
		}()

		summary, runErr := core.Execute(ctx, config)

		if summary != nil {
			fmt.Println("\n==================================================")
			fmt.Println("📊 抓取统计")
			fmt.Println("==================================================")
			fmt.Printf("✅ 成功目标: %d\n", summary.SuccessCount)
			fmt.Printf("❌ 哨兵记录: %d\n", summary.SentinelCount)
			fmt.Printf("📋 队列剩余: %d\n", summary.Remaining)
			if summary.BreakerFired {
				fmt.Println("⚠️  熔断已触发,请人工检查台账尾部记录")
			}
			fmt.Printf("⏱️  总耗时: %.2f秒\n", summary.TotalDuration)
			fmt.Println("==================================================")
		}

		if runErr != nil {
			return runErr
		}

		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "检查队列中目标的可达性",
	Long:  "用轻量HTTP请求逐个访问队列目标的根域名,筛出死域名,避免浪费浏览器等待时间。只读队列,不做修改。",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if queuePath != "" {
			config.Paths.QueuePath = queuePath
		}

		_, err = core.PrecheckQueue(config, checkTimeout)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SimWebTrack %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&queuePath, "queue", "", "工作队列文件路径")

	// 认证参数
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "登录用户名")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "登录密码")
	rootCmd.Flags().BoolVar(&useCookies, "use-cookies", true, "尝试Cookie快速登录")

	// 路径参数
	rootCmd.Flags().StringVar(&ledgerPath, "ledger", "", "结果台账文件路径")
	rootCmd.Flags().StringVar(&cookiePath, "cookies", "", "Cookie存储文件路径")

	// 浏览器参数
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")

	// 可达性检查参数
	checkCmd.Flags().IntVar(&checkTimeout, "timeout", 15, "单个目标的请求超时(秒)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
