// Package storage 提供ZKGATE系统的键值存储接口定义
//
// 💾 **键值存储服务 (Key-Value Storage Service)**
//
// 本文件定义了ZKGATE系统的键值存储接口，专注于：
// - 高性能存储：BadgerDB的原生高性能键值存储服务
// - 事务支持：支持原子操作和数据一致性
// - 前缀扫描：支持资源注册表的批量恢复
//
// 🎯 **核心功能**
// - KVStore：键值存储接口，资源注册表与可信设置工件的持久化底座
//
// 🔗 **组件关系**
// - KVStore：被资源注册表（access gateway）、设置工件存储使用
// - 实现：internal/core/infrastructure/storage 提供Badger与内存两种实现
package storage

import (
	"context"
)

// KVStore 定义键值存储的应用接口
//
// 提供简单易用的键值存储操作，适用于需要高性能键值操作的场景。
// 写操作必须是原子的：调用方要么观察到完整的新值，要么观察到完整的旧值。
type KVStore interface {
	// Get 获取指定键的值
	// 如果键不存在，返回nil值和nil错误
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 设置键值对
	// 如果键已存在，将原子地覆盖原有值
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除指定键的值
	// 如果键不存在，不会返回错误
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixScan 按前缀扫描键值对
	// 返回所有键以指定前缀开头的键值对，map的键为键的字符串表示
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)

	// RunInTransaction 在事务中执行操作
	// fn 在事务上下文中执行；返回错误时事务回滚，否则提交
	RunInTransaction(ctx context.Context, fn func(txn Transaction) error) error

	// Close 关闭存储
	// 确保所有待处理的事务被提交，数据被正确写入磁盘
	Close() error
}

// Transaction 定义事务内可用的操作
type Transaction interface {
	// Get 事务内读取
	Get(key []byte) ([]byte, error)

	// Set 事务内写入
	Set(key, value []byte) error

	// Delete 事务内删除
	Delete(key []byte) error
}
