// Package log 提供了一个基于zap的日志实现
// 它支持不同级别的日志记录、结构化日志、日志旋转等功能
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志实现配置
type Options struct {
	Level      logIface.Level // 日志级别
	ToConsole  bool           // 是否输出到控制台
	FilePath   string         // 日志文件路径，为空时不写文件
	MaxSizeMB  int            // 单个日志文件最大大小(MB)
	MaxBackups int            // 最大备份文件数
	MaxAgeDays int            // 日志文件最大保留天数
	Compress   bool           // 是否压缩历史日志文件
}

// DefaultOptions 返回默认日志配置
func DefaultOptions() *Options {
	return &Options{
		Level:      logIface.InfoLevel,
		ToConsole:  true,
		MaxSizeMB:  64,
		MaxBackups: 3,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

var (
	// 全局日志实例，使用接口类型
	globalLogger logIface.Logger
	mu           sync.RWMutex
)

// Logger 是日志记录器的结构体，实现了log.Logger接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

func init() {
	ResetDefault()
}

// ResetDefault 重置全局日志记录器为默认配置
func ResetDefault() {
	logger, err := New(DefaultOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logIface.Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = logger
}

// GetLogger 获取全局日志记录器
func GetLogger() logIface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// New 根据配置创建日志记录器
func New(opts *Options) (logIface.Logger, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	level, err := zapLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core

	if opts.ToConsole {
		consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level))
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		// lumberjack 负责日志文件的滚动与清理
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
		fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(fileEncoder, fileWriter, level))
	}

	if len(cores) == 0 {
		// 至少保留一个输出，避免日志静默丢失
		consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCallerSkip(1))
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// zapLevel 将接口级别转换为zap级别
func zapLevel(level logIface.Level) (zapcore.Level, error) {
	switch level {
	case logIface.DebugLevel:
		return zapcore.DebugLevel, nil
	case logIface.InfoLevel, "":
		return zapcore.InfoLevel, nil
	case logIface.WarnLevel:
		return zapcore.WarnLevel, nil
	case logIface.ErrorLevel:
		return zapcore.ErrorLevel, nil
	case logIface.FatalLevel:
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("未知日志级别: %s", level)
	}
}

// Debug 记录调试级别的日志
func (l *Logger) Debug(msg string) { l.sugar.Debug(msg) }

// Debugf 使用格式化字符串记录调试级别的日志
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info 记录信息级别的日志
func (l *Logger) Info(msg string) { l.sugar.Info(msg) }

// Infof 使用格式化字符串记录信息级别的日志
func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn 记录警告级别的日志
func (l *Logger) Warn(msg string) { l.sugar.Warn(msg) }

// Warnf 使用格式化字符串记录警告级别的日志
func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error 记录错误级别的日志
func (l *Logger) Error(msg string) { l.sugar.Error(msg) }

// Errorf 使用格式化字符串记录错误级别的日志
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Fatal 记录致命级别的日志，然后退出程序
func (l *Logger) Fatal(msg string) { l.sugar.Fatal(msg) }

// Fatalf 使用格式化字符串记录致命级别的日志，然后退出程序
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logIface.Logger {
	newSugar := l.sugar.With(args...)
	return &Logger{
		zapLogger: newSugar.Desugar(),
		sugar:     newSugar,
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// GetZapLogger 获取原始的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}
