// Package event 提供ZKGATE系统的事件总线接口定义
//
// 🎯 **事件总线系统 (Event Bus System)**
//
// 本文件定义了ZKGATE系统的事件总线接口，支持：
// - 标准事件订阅和发布
// - 异步事件处理
//
// 网关的注册事件与访问判定事件通过该总线对外广播，
// 事件数据只携带公开信息（resourceId、判定结果），绝不携带载荷或见证。
package event

// EventType 事件类型
type EventType string

// ZKGATE系统事件类型常量
const (
	// EventResourceRegistered 资源注册（或重注册）完成
	EventResourceRegistered EventType = "gateway:resource_registered"

	// EventAccessGranted 访问判定：放行
	EventAccessGranted EventType = "gateway:access_granted"

	// EventAccessDenied 访问判定：拒绝
	EventAccessDenied EventType = "gateway:access_denied"

	// EventContributionAppended 可信设置贡献已追加到谱系
	EventContributionAppended EventType = "setup:contribution_appended"

	// EventVerificationKeyRotated 验证密钥已轮换
	EventVerificationKeyRotated EventType = "gateway:verification_key_rotated"
)

// EventBus 事件总线接口
//
// 🎯 **设计要点**：
// - 保持与asaskevich/EventBus语义一致的最小接口
// - 由DI容器自动管理生命周期
type EventBus interface {
	// Subscribe 订阅事件
	Subscribe(eventType EventType, handler interface{}) error

	// SubscribeAsync 异步订阅事件
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error

	// SubscribeOnce 一次性订阅事件
	SubscribeOnce(eventType EventType, handler interface{}) error

	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})

	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error

	// WaitAsync 等待所有异步处理完成
	WaitAsync()

	// HasCallback 检查是否有回调函数
	HasCallback(eventType EventType) bool
}
