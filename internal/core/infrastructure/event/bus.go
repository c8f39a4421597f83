// Package event 提供ZKGATE系统的事件总线实现
//
// 基于 asaskevich/EventBus 实现 pkg/interfaces/infrastructure/event.EventBus 接口。
package event

import (
	evbus "github.com/asaskevich/EventBus"
	eventIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/event"
)

// Bus 事件总线实现
type Bus struct {
	bus evbus.Bus
}

var _ eventIface.EventBus = (*Bus)(nil)

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType eventIface.EventType, handler interface{}) error {
	return b.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 异步订阅事件
func (b *Bus) SubscribeAsync(eventType eventIface.EventType, handler interface{}, transactional bool) error {
	return b.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// SubscribeOnce 一次性订阅事件
func (b *Bus) SubscribeOnce(eventType eventIface.EventType, handler interface{}) error {
	return b.bus.SubscribeOnce(string(eventType), handler)
}

// Publish 发布事件
func (b *Bus) Publish(eventType eventIface.EventType, args ...interface{}) {
	b.bus.Publish(string(eventType), args...)
}

// Unsubscribe 取消订阅
func (b *Bus) Unsubscribe(eventType eventIface.EventType, handler interface{}) error {
	return b.bus.Unsubscribe(string(eventType), handler)
}

// WaitAsync 等待所有异步处理完成
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

// HasCallback 检查是否有回调函数
func (b *Bus) HasCallback(eventType eventIface.EventType) bool {
	return b.bus.HasCallback(string(eventType))
}
