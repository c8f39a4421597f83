// Package storage 提供ZKGATE系统的键值存储实现
//
// 💾 **BadgerDB存储实现 (BadgerDB Storage Implementation)**
//
// 基于BadgerDB实现 pkg/interfaces/infrastructure/storage.KVStore 接口，
// 为资源注册表与可信设置工件提供持久化底座。
package storage

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	storageIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/storage"
	logIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
)

// BadgerStore BadgerDB键值存储
type BadgerStore struct {
	db     *badger.DB
	logger logIface.Logger
}

// 编译期接口断言
var _ storageIface.KVStore = (*BadgerStore)(nil)

// NewBadgerStore 打开（或创建）BadgerDB存储
func NewBadgerStore(path string, logger logIface.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	// Badger自带的日志输出与zap体系不兼容，这里静默掉
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开BadgerDB失败: path=%s, %w", path, err)
	}

	logger.Debugf("BadgerDB存储已打开: path=%s", path)
	return &BadgerStore{db: db, logger: logger}, nil
}

// Get 获取指定键的值；键不存在时返回 (nil, nil)
func (s *BadgerStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取键值失败: %w", err)
	}
	return value, nil
}

// Set 原子地设置键值对
func (s *BadgerStore) Set(ctx context.Context, key, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("写入键值失败: %w", err)
	}
	return nil
}

// Delete 删除指定键
func (s *BadgerStore) Delete(ctx context.Context, key []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("删除键值失败: %w", err)
	}
	return nil
}

// Exists 检查键是否存在
func (s *BadgerStore) Exists(ctx context.Context, key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("检查键存在性失败: %w", err)
	}
	return true, nil
}

// PrefixScan 按前缀扫描键值对
func (s *BadgerStore) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("前缀扫描失败: %w", err)
	}
	return result, nil
}

// RunInTransaction 在事务中执行操作
func (s *BadgerStore) RunInTransaction(ctx context.Context, fn func(txn storageIface.Transaction) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
}

// Close 关闭存储
func (s *BadgerStore) Close() error {
	s.logger.Debug("关闭BadgerDB存储")
	return s.db.Close()
}

// badgerTxn Badger事务包装，实现storage.Transaction接口
type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *badgerTxn) Set(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *badgerTxn) Delete(key []byte) error {
	return t.txn.Delete(key)
}
