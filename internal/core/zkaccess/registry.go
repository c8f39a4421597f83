package zkaccess

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/snappy"

	// 基础设施
	"github.com/zkgate/v1/pkg/interfaces/access"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/storage"
)

// resourceKeyPrefix 资源记录在KV存储中的键前缀
const resourceKeyPrefix = "zkgate:resource:"

// resourceRecord 资源的持久化形态
type resourceRecord struct {
	ResourceID         uint64 `json:"resource_id"`
	RequiredPermission uint64 `json:"required_permission"`
	Payload            []byte `json:"payload,omitempty"`
	UpdatedAt          int64  `json:"updated_at"`
}

// ResourceRegistry 受保护资源注册表
//
// 🎯 **核心职责**：
// 1. 维护 resourceId → 访问要求 的权威映射
// 2. 写穿透持久化：先落KV存储，成功后才更新内存索引
// 3. 启动时从存储恢复全量资源
//
// ⚠️ 注册表是访问判定的前置依据：未注册的资源一律拒绝访问。
type ResourceRegistry struct {
	logger log.Logger
	store  storage.KVStore

	mu        sync.RWMutex
	resources map[uint64]*access.Resource
}

// NewResourceRegistry 创建注册表并从存储恢复已注册资源
func NewResourceRegistry(logger log.Logger, store storage.KVStore) (*ResourceRegistry, error) {
	r := &ResourceRegistry{
		logger:    logger,
		store:     store,
		resources: make(map[uint64]*access.Resource),
	}
	if err := r.recover(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// recover 从KV存储恢复内存索引
func (r *ResourceRegistry) recover(ctx context.Context) error {
	pairs, err := r.store.PrefixScan(ctx, []byte(resourceKeyPrefix))
	if err != nil {
		return fmt.Errorf("扫描资源记录失败: %w", err)
	}

	for key, value := range pairs {
		rec, err := decodeResourceRecord(value)
		if err != nil {
			r.logger.Warnf("跳过损坏的资源记录: key=%s, err=%v", key, err)
			continue
		}
		r.resources[rec.ResourceID] = &access.Resource{
			ResourceID:         rec.ResourceID,
			RequiredPermission: rec.RequiredPermission,
			Payload:            rec.Payload,
			UpdatedAt:          time.Unix(rec.UpdatedAt, 0),
		}
	}

	r.logger.Infof("资源注册表已恢复: %d条记录", len(r.resources))
	return nil
}

// Upsert 注册或更新资源
//
// 写穿透：先写KV存储，成功后才更新内存索引；
// 存储失败时内存保持旧值，不会出现内存领先于磁盘的窗口。
func (r *ResourceRegistry) Upsert(ctx context.Context, resourceID, requiredPermission uint64, payload []byte) error {
	now := time.Now()
	rec := &resourceRecord{
		ResourceID:         resourceID,
		RequiredPermission: requiredPermission,
		Payload:            payload,
		UpdatedAt:          now.Unix(),
	}

	encoded, err := encodeResourceRecord(rec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Set(ctx, resourceKey(resourceID), encoded); err != nil {
		return fmt.Errorf("持久化资源记录失败: %w", err)
	}

	r.resources[resourceID] = &access.Resource{
		ResourceID:         resourceID,
		RequiredPermission: requiredPermission,
		Payload:            payload,
		UpdatedAt:          now,
	}
	r.logger.Debugf("资源已注册: id=%d, required=%d, payload=%d字节",
		resourceID, requiredPermission, len(payload))
	return nil
}

// Get 按resourceId查询资源；未注册返回ErrUnregisteredResource包装错误
func (r *ResourceRegistry) Get(resourceID uint64) (*access.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[resourceID]
	if !ok {
		return nil, WrapUnregisteredResourceError(resourceID)
	}

	// 返回拷贝，调用方改不到注册表内部状态
	out := *res
	out.Payload = append([]byte(nil), res.Payload...)
	return &out, nil
}

// Count 已注册资源数量
func (r *ResourceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// resourceKey 资源的KV存储键
func resourceKey(resourceID uint64) []byte {
	key := make([]byte, len(resourceKeyPrefix)+8)
	copy(key, resourceKeyPrefix)
	binary.BigEndian.PutUint64(key[len(resourceKeyPrefix):], resourceID)
	return key
}

// encodeResourceRecord JSON编码 + snappy压缩
func encodeResourceRecord(rec *resourceRecord) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("编码资源记录失败: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// decodeResourceRecord snappy解压 + JSON解码
func decodeResourceRecord(data []byte) (*resourceRecord, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("解压资源记录失败: %w", err)
	}
	var rec resourceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("解码资源记录失败: %w", err)
	}
	return &rec, nil
}
