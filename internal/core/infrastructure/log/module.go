// Package log 提供日志管理功能
package log

import (
	"fmt"

	logIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleOutput 定义日志模块的输出结构
type ModuleOutput struct {
	fx.Out

	Logger    logIface.Logger // 日志记录器接口
	ZapLogger *zap.Logger     // zap.Logger 具体类型（供需要 zap 特性的模块使用）
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供日志服务
func ProvideServices() (ModuleOutput, error) {
	logger, err := New(DefaultOptions())
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建日志记录器失败: %w", err)
	}

	// 设置为全局记录器，替换掉init()时用默认配置创建的日志器
	SetLogger(logger)

	concreteLogger, ok := logger.(*Logger)
	if !ok {
		return ModuleOutput{}, fmt.Errorf("logger 类型断言失败，无法获取 *zap.Logger")
	}

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: concreteLogger.zapLogger,
	}, nil
}
