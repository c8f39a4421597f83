package zkaccess

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/allegro/bigcache/v3"

	// 基础设施
	"github.com/zkgate/v1/pkg/interfaces/access"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"

	// gnark ZK库
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	gnarklogger "github.com/consensys/gnark/logger"

	// zerolog for gnark logger
	"github.com/rs/zerolog"
)

// Verifier 权限阈值证明验证器
//
// 🎯 **专门职责**：验证权限阈值证明与公开信号的配对关系
// 🏗️ **技术栈**：基于gnark库实现Groth16证明验证
// 🔧 **核心功能**：
// - 公开信号布局与数量校验
// - 验证结果缓存（证明+信号+密钥 三元组为键）
//
// 📋 错误语义：
// - 结构性问题（畸形证明、信号数量不符、方案不符）返回错误
// - 配对校验干净地不通过返回 (false, nil)，这是正常的拒绝而非故障
type Verifier struct {
	logger log.Logger
	scheme ProvingScheme
	layout CircuitLayout

	// 验证结果缓存；配对运算毫秒级，重复请求直接命中
	cache *bigcache.BigCache
}

// NewVerifier 创建证明验证器
//
// cacheSizeMB<=0时禁用缓存。
func NewVerifier(logger log.Logger, scheme ProvingScheme, cacheSizeMB int) (*Verifier, error) {
	v := &Verifier{
		logger: logger,
		scheme: scheme,
		layout: DefaultLayout(),
	}

	if cacheSizeMB > 0 {
		cfg := bigcache.DefaultConfig(10 * time.Minute)
		cfg.HardMaxCacheSize = cacheSizeMB
		cfg.Verbose = false
		cache, err := bigcache.New(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("创建验证结果缓存失败: %w", err)
		}
		v.cache = cache
	}

	return v, nil
}

// Verify 验证证明与公开信号
//
// 📋 执行顺序：
// 1. 方案/曲线标签核对
// 2. 公开信号布局校验（数量与取值域）
// 3. 缓存命中检查
// 4. 证明反序列化（含曲线点与子群检查）
// 5. 公开见证重建 + 配对验证
func (v *Verifier) Verify(ctx context.Context, proof *access.ThresholdProof, signals PublicSignals, vk VerifyingKey) (bool, error) {
	if proof == nil || len(proof.Proof) == 0 {
		return false, WrapMalformedProofError("证明数据为空")
	}
	if vk == nil {
		return false, ErrVerificationKeyMissing
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	startTime := time.Now()

	// 1. 方案与曲线标签核对
	if proof.Scheme != v.scheme.SchemeName() {
		return false, WrapUnsupportedSchemeError(proof.Scheme)
	}
	if proof.Curve != v.scheme.CurveName() {
		return false, WrapUnsupportedSchemeError(fmt.Sprintf("%s/%s", proof.Scheme, proof.Curve))
	}

	// 2. 信号布局校验
	if err := v.layout.Validate(signals); err != nil {
		return false, err
	}

	// 3. 缓存命中检查
	cacheKey := v.cacheKey(proof, signals, vk)
	if v.cache != nil && cacheKey != "" {
		if entry, err := v.cache.Get(cacheKey); err == nil && len(entry) == 1 {
			v.logger.Debugf("验证结果缓存命中: granted=%d", entry[0])
			return entry[0] == 1, nil
		} else if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			v.logger.Warnf("验证结果缓存读取失败: %v", err)
		}
	}

	// ⚠️ **禁用gnark库的日志输出**
	// gnark库会输出大量的调试信息，在验证期间禁用
	oldGnarkLogger := gnarklogger.Logger()
	discardLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)
	gnarklogger.Set(discardLogger)
	defer func() {
		gnarklogger.Set(oldGnarkLogger)
	}()

	// 4. 证明反序列化；不在曲线上/不在子群内的点在这里被拒绝
	gnarkProof, err := v.scheme.DeserializeProof(proof.Proof)
	if err != nil {
		return false, err
	}

	// 5. 公开见证重建 + 配对验证
	publicWitness, err := v.buildPublicWitness(signals)
	if err != nil {
		return false, err
	}

	granted := true
	if err := v.scheme.Verify(gnarkProof, vk, publicWitness); err != nil {
		// 配对校验不通过是正常的拒绝路径，不作为错误上抛
		v.logger.Debugf("证明验证不通过: %v", err)
		granted = false
	}

	if v.cache != nil && cacheKey != "" {
		entry := []byte{0}
		if granted {
			entry[0] = 1
		}
		if err := v.cache.Set(cacheKey, entry); err != nil {
			v.logger.Warnf("验证结果缓存写入失败: %v", err)
		}
	}

	v.logger.Debugf("证明验证完成: granted=%v, 耗时=%v", granted, time.Since(startTime))
	return granted, nil
}

// cacheKey 计算验证结果缓存键
//
// 键覆盖证明字节、信号向量与验证密钥三者，任一变化都不会串台。
func (v *Verifier) cacheKey(proof *access.ThresholdProof, signals PublicSignals, vk VerifyingKey) string {
	vkw, ok := vk.(io.WriterTo)
	if !ok {
		return ""
	}
	h := sha256.New()
	h.Write(proof.Proof)
	h.Write(signals.Digest())
	if _, err := vkw.WriteTo(h); err != nil {
		return ""
	}
	return string(h.Sum(nil))
}

// buildPublicWitness 把公开信号向量重建为gnark公开见证
//
// 赋值必须与电路声明的公开变量顺序一致，
// 任何置换都会导致配对验证在不同的声明下进行从而失败。
// 标量域取自方案声明的曲线，换曲线不需要改这里。
func (v *Verifier) buildPublicWitness(signals PublicSignals) (witness.Witness, error) {
	assignment := &PermissionCircuit{
		RequiredPermission: signals.RequiredPermission(),
		ResourceID:         signals.ResourceID(),
		AccessGranted:      signals[SignalAccessGranted],
	}
	w, err := frontend.NewWitness(assignment, v.scheme.CurveID().ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, WrapMalformedProofError(fmt.Sprintf("公开见证重建失败: %v", err))
	}
	return w, nil
}
