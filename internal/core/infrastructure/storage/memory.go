// Package storage 提供ZKGATE系统的键值存储实现
package storage

import (
	"context"
	"strings"
	"sync"

	storageIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/storage"
)

// MemoryStore 内存键值存储
//
// 测试与演示场景使用；接口语义与BadgerStore保持一致。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storageIface.KVStore = (*MemoryStore)(nil)

// NewMemoryStore 创建内存键值存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get 获取指定键的值；键不存在时返回 (nil, nil)
func (s *MemoryStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

// Set 原子地设置键值对
func (s *MemoryStore) Set(ctx context.Context, key, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = cp
	return nil
}

// Delete 删除指定键
func (s *MemoryStore) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

// Exists 检查键是否存在
func (s *MemoryStore) Exists(ctx context.Context, key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[string(key)]
	return ok, nil
}

// PrefixScan 按前缀扫描键值对
func (s *MemoryStore) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string][]byte)
	for k, v := range s.data {
		if strings.HasPrefix(k, string(prefix)) {
			cp := make([]byte, len(v))
			copy(cp, v)
			result[k] = cp
		}
	}
	return result, nil
}

// RunInTransaction 在事务中执行操作
//
// 内存实现用全局写锁模拟事务的互斥性；fn返回错误时放弃已写入的变更。
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(txn storageIface.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memoryTxn{store: s, writes: make(map[string][]byte), deletes: make(map[string]bool)}
	if err := fn(staged); err != nil {
		return err
	}
	for k, v := range staged.writes {
		s.data[k] = v
	}
	for k := range staged.deletes {
		delete(s.data, k)
	}
	return nil
}

// Close 关闭存储
func (s *MemoryStore) Close() error {
	return nil
}

// memoryTxn 内存事务：先暂存写集，提交时一次性应用
type memoryTxn struct {
	store   *MemoryStore
	writes  map[string][]byte
	deletes map[string]bool
}

func (t *memoryTxn) Get(key []byte) ([]byte, error) {
	k := string(key)
	if t.deletes[k] {
		return nil, nil
	}
	if v, ok := t.writes[k]; ok {
		return v, nil
	}
	v, ok := t.store.data[k]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (t *memoryTxn) Set(key, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	t.writes[string(key)] = cp
	delete(t.deletes, string(key))
	return nil
}

func (t *memoryTxn) Delete(key []byte) error {
	k := string(key)
	t.deletes[k] = true
	delete(t.writes, k)
	return nil
}
