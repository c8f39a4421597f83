// Package log 提供ZKGATE系统的日志级别定义
package log

// Level 日志级别枚举类型
type Level string

// 标准日志级别常量
const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

// String 返回日志级别的字符串表示
func (l Level) String() string {
	return string(l)
}

// Valid 判断日志级别是否合法
func (l Level) Valid() bool {
	switch l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return true
	}
	return false
}
