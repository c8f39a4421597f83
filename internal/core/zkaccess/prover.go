package zkaccess

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	// 基础设施
	"github.com/zkgate/v1/pkg/interfaces/access"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"

	// gnark ZK库
	"github.com/consensys/gnark/constraint"
	gnarklogger "github.com/consensys/gnark/logger"

	// zerolog for gnark logger
	"github.com/rs/zerolog"
)

// Prover 权限阈值证明生成器
//
// 🎯 **专门职责**：针对已完成可信设置的权限阈值电路生成零知识证明
// 🏗️ **技术栈**：基于gnark库实现Groth16证明方案
//
// ⚠️ 同一见证两次证明产出的字节串不同（证明生成引入新鲜随机量），
// 调用方不得将证明字节用作去重键。
type Prover struct {
	logger log.Logger
	scheme ProvingScheme
	ccs    constraint.ConstraintSystem
	pk     ProvingKey
	vkHash []byte
}

// NewProver 创建证明生成器
//
// vk用于预计算验证密钥哈希，证明会携带该哈希供网关做快速一致性预检。
func NewProver(
	logger log.Logger,
	scheme ProvingScheme,
	ccs constraint.ConstraintSystem,
	pk ProvingKey,
	vk VerifyingKey,
) (*Prover, error) {
	vkBytes, err := scheme.SerializeVerifyingKey(vk)
	if err != nil {
		return nil, fmt.Errorf("计算验证密钥哈希失败: %w", err)
	}
	vkHash := sha256.Sum256(vkBytes)

	return &Prover{
		logger: logger,
		scheme: scheme,
		ccs:    ccs,
		pk:     pk,
		vkHash: vkHash[:],
	}, nil
}

// VerifyingKeyHash 证明密钥对应验证密钥的SHA-256哈希
func (p *Prover) VerifyingKeyHash() []byte {
	out := make([]byte, len(p.vkHash))
	copy(out, p.vkHash)
	return out
}

// Prove 为给定见证生成权限阈值证明
//
// 见证在进入gnark之前先做域外可满足性复检，
// 不满足约束的见证直接拒绝，不产出任何证明字节。
func (p *Prover) Prove(ctx context.Context, w *PermissionWitness) (*access.ThresholdProof, PublicSignals, error) {
	if w == nil {
		return nil, nil, WrapInvalidWitnessError("见证为空")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if !w.Satisfied() {
		return nil, nil, WrapInvalidWitnessError("见证赋值超出电路位宽")
	}

	startTime := time.Now()
	p.logger.Debugf("开始生成权限阈值证明: %s", w)

	// ⚠️ **禁用gnark库的日志输出**
	// gnark库会输出大量的调试信息（compiling circuit, parsed circuit inputs等）
	// 这些日志会污染我们的日志系统，所以在执行期间禁用
	// gnark使用zerolog，所以我们创建一个丢弃输出的zerolog.Logger
	oldGnarkLogger := gnarklogger.Logger()
	discardLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)
	gnarklogger.Set(discardLogger)
	defer func() {
		gnarklogger.Set(oldGnarkLogger)
	}()

	proof, err := p.scheme.Prove(p.ccs, p.pk, w.Full())
	if err != nil {
		return nil, nil, WrapInvalidWitnessError(fmt.Sprintf("证明生成失败: %v", err))
	}

	proofBytes, err := p.scheme.SerializeProof(proof)
	if err != nil {
		return nil, nil, fmt.Errorf("序列化证明失败: %w", err)
	}

	signals := w.PublicSignals()
	generationTime := time.Since(startTime)
	p.logger.Debugf("权限阈值证明生成完成: 耗时=%v, 大小=%d字节", generationTime, len(proofBytes))

	return &access.ThresholdProof{
		Proof:               proofBytes,
		Scheme:              p.scheme.SchemeName(),
		Curve:               p.scheme.CurveName(),
		VerificationKeyHash: p.VerifyingKeyHash(),
	}, signals, nil
}
