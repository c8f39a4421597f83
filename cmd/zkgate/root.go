package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	zkaccessconfig "github.com/zkgate/v1/internal/config/zkaccess"
	logimpl "github.com/zkgate/v1/internal/core/infrastructure/log"
	logIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigFile string // 配置文件路径
	Dir        string // 设置产物目录
	Verbose    bool   // 详细模式
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "zkgate",
	Short: "ZKGATE 零知识权限访问系统",
	Long: `ZKGATE - 基于零知识证明的权限门控系统

持有方在不泄露权限数值的前提下，证明自己的权限不低于资源要求的阈值。

典型流程:
  zkgate ceremony init        # 初始化多方可信设置
  zkgate ceremony contribute  # 各方依次注入随机量
  zkgate ceremony finalize    # 定格仪式，导出密钥
  zkgate prove                # 生成权限阈值证明
  zkgate verify               # 验证证明
  zkgate demo                 # 端到端演示`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "配置文件路径 (YAML)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Dir, "dir", "d", "data/setup", "设置产物目录")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "详细输出")

	rootCmd.AddCommand(ceremonyCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(demoCmd)
}

// loadOptions 加载配置（文件可选）
func loadOptions() (*zkaccessconfig.Options, error) {
	if globalFlags.ConfigFile != "" {
		cfg, err := zkaccessconfig.NewFromFile(globalFlags.ConfigFile)
		if err != nil {
			return nil, err
		}
		return cfg.Options(), nil
	}
	return zkaccessconfig.New(nil).Options(), nil
}

// newCLILogger CLI用日志器
func newCLILogger() (logIface.Logger, error) {
	level := logIface.WarnLevel
	if globalFlags.Verbose {
		level = logIface.DebugLevel
	}
	return logimpl.New(&logimpl.Options{
		Level:     level,
		ToConsole: true,
	})
}
