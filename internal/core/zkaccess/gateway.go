package zkaccess

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	// 基础设施
	"github.com/zkgate/v1/pkg/interfaces/access"
	eventIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/event"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
)

// 网关指标
var (
	accessDecisionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zkgate_gateway_access_decisions_total",
		Help: "访问判定总数（按结果分类）",
	}, []string{"outcome"})

	resourceRegistrationCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zkgate_gateway_resource_registrations_total",
		Help: "资源注册/更新总数",
	})
)

// 判定结果标签
const (
	outcomeGranted      = "granted"
	outcomeDenied       = "denied"
	outcomeUnregistered = "unregistered"
	outcomeError        = "error"
)

// Gateway 零知识访问网关
//
// 🎯 **核心职责**：
// 1. 受保护资源的注册入口
// 2. 访问请求的完整判定流水线：注册表查询 → 信号绑定核对 → 证明验证 → 放行/拒绝
// 3. 验证密钥轮换（仪式重跑后热替换）
//
// 📋 判定语义：
// - 结构性故障（未注册资源、畸形证明、方案不符）以error返回
// - 绑定不符与验证不通过是正常拒绝，返回 Granted=false 的判定与nil错误
//
// ⚠️ 网关只认公开信号与证明的配对关系，从不接触userPermission明文。
type Gateway struct {
	logger   log.Logger
	registry *ResourceRegistry
	verifier *Verifier
	scheme   ProvingScheme
	bus      eventIface.EventBus

	mu     sync.RWMutex
	vk     VerifyingKey
	vkHash []byte
}

var _ access.Service = (*Gateway)(nil)

// NewGateway 创建访问网关
func NewGateway(
	logger log.Logger,
	registry *ResourceRegistry,
	verifier *Verifier,
	scheme ProvingScheme,
	bus eventIface.EventBus,
	vk VerifyingKey,
) (*Gateway, error) {
	g := &Gateway{
		logger:   logger,
		registry: registry,
		verifier: verifier,
		scheme:   scheme,
		bus:      bus,
	}
	if vk != nil {
		if err := g.setVerifyingKey(vk); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Register 注册或更新受保护资源
func (g *Gateway) Register(ctx context.Context, resourceID, requiredPermission uint64, payload []byte) error {
	if err := g.registry.Upsert(ctx, resourceID, requiredPermission, payload); err != nil {
		return err
	}

	resourceRegistrationCounter.Inc()
	if g.bus != nil {
		g.bus.Publish(eventIface.EventResourceRegistered, resourceID, requiredPermission)
	}
	return nil
}

// GetResource 查询已注册资源
//
// 载荷只在放行时返回，查询接口只暴露公开要求。
func (g *Gateway) GetResource(ctx context.Context, resourceID uint64) (*access.Resource, error) {
	res, err := g.registry.Get(resourceID)
	if err != nil {
		return nil, err
	}
	res.Payload = nil
	return res, nil
}

// RequestAccess 处理访问请求
//
// 📋 判定流水线：
// 1. 注册表查询：未注册资源直接报错，不触碰任何密码学运算
// 2. 信号绑定核对：requiredPermission与resourceId必须与注册记录逐位一致，
//    防止拿低阈值资源的合法证明重放到高阈值资源
// 3. 验证密钥哈希预检（证明自带哈希与当前密钥不符时快速拒绝）
// 4. 配对验证
// 5. accessGranted信号必须为1（证明"比较结果为0"不是放行依据）
func (g *Gateway) RequestAccess(ctx context.Context, resourceID uint64, proof *access.ThresholdProof, publicSignals []*big.Int) (*access.AccessDecision, error) {
	// 1. 注册表查询
	resource, err := g.registry.Get(resourceID)
	if err != nil {
		accessDecisionCounter.WithLabelValues(outcomeUnregistered).Inc()
		return nil, err
	}

	signals := PublicSignals(publicSignals)
	if err := DefaultLayout().Validate(signals); err != nil {
		accessDecisionCounter.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	// 2. 信号绑定核对
	if signals.RequiredPermission().Cmp(new(big.Int).SetUint64(resource.RequiredPermission)) != 0 {
		return g.deny(resourceID, fmt.Sprintf("%v: 证明绑定的阈值%s与资源要求%d不符",
			ErrPublicSignalMismatch, signals.RequiredPermission(), resource.RequiredPermission))
	}
	if signals.ResourceID().Cmp(new(big.Int).SetUint64(resourceID)) != 0 {
		return g.deny(resourceID, fmt.Sprintf("%v: 证明绑定的资源%s与请求资源%d不符",
			ErrPublicSignalMismatch, signals.ResourceID(), resourceID))
	}

	g.mu.RLock()
	vk := g.vk
	vkHash := g.vkHash
	g.mu.RUnlock()
	if vk == nil {
		accessDecisionCounter.WithLabelValues(outcomeError).Inc()
		return nil, ErrVerificationKeyMissing
	}

	// 3. 验证密钥哈希预检：不符时必然过不了配对验证，直接快速拒绝
	if proof != nil && len(proof.VerificationKeyHash) > 0 && !bytes.Equal(proof.VerificationKeyHash, vkHash) {
		return g.deny(resourceID, "证明绑定的验证密钥与当前密钥不符")
	}

	// 4. 配对验证
	granted, err := g.verifier.Verify(ctx, proof, signals, vk)
	if err != nil {
		accessDecisionCounter.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	if !granted {
		return g.deny(resourceID, "证明验证不通过")
	}

	// 5. accessGranted信号必须为1
	if !signals.AccessGranted() {
		return g.deny(resourceID, "证明声明的比较结果为拒绝")
	}

	accessDecisionCounter.WithLabelValues(outcomeGranted).Inc()
	if g.bus != nil {
		g.bus.Publish(eventIface.EventAccessGranted, resourceID)
	}
	g.logger.Infof("访问放行: resource=%d", resourceID)

	return &access.AccessDecision{
		Granted: true,
		Payload: resource.Payload,
	}, nil
}

// RotateVerificationKey 轮换验证密钥
//
// 仪式重跑产出新密钥后热替换；旧密钥签发的证明从此不再被接受。
func (g *Gateway) RotateVerificationKey(serializedVK []byte) error {
	vk, err := g.scheme.DeserializeVerifyingKey(serializedVK)
	if err != nil {
		return err
	}
	if err := g.setVerifyingKey(vk); err != nil {
		return err
	}

	if g.bus != nil {
		g.bus.Publish(eventIface.EventVerificationKeyRotated)
	}
	g.logger.Infof("验证密钥已轮换: hash=%x", g.vkHash[:8])
	return nil
}

// VerifyingKeyHash 当前验证密钥的SHA-256哈希
func (g *Gateway) VerifyingKeyHash() []byte {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]byte, len(g.vkHash))
	copy(out, g.vkHash)
	return out
}

// deny 记录并返回拒绝判定
func (g *Gateway) deny(resourceID uint64, reason string) (*access.AccessDecision, error) {
	accessDecisionCounter.WithLabelValues(outcomeDenied).Inc()
	if g.bus != nil {
		g.bus.Publish(eventIface.EventAccessDenied, resourceID, reason)
	}
	g.logger.Infof("访问拒绝: resource=%d, reason=%s", resourceID, reason)

	return &access.AccessDecision{
		Granted: false,
		Reason:  reason,
	}, nil
}

// setVerifyingKey 替换当前验证密钥并重算哈希
func (g *Gateway) setVerifyingKey(vk VerifyingKey) error {
	vkBytes, err := g.scheme.SerializeVerifyingKey(vk)
	if err != nil {
		return err
	}
	hash := sha256.Sum256(vkBytes)

	g.mu.Lock()
	g.vk = vk
	g.vkHash = hash[:]
	g.mu.Unlock()
	return nil
}
