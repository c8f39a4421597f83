// Package zkaccess provides error definitions for the zero-knowledge access subsystem.
package zkaccess

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            零知识访问错误定义
// ============================================================================
//
// 错误传播策略：
// - 结构性/输入错误（电路畸形、谱系断链、见证不可满足、证明畸形）对本次操作是
//   致命的，必须以错误形式向调用方暴露，绝不静默折算成"拒绝访问"；
// - 干净的验证失败与公开信号不匹配是预期的非异常结果，以 Granted=false 报告。
//
// ============================================================================

var (
	// ErrMalformedCircuit 电路畸形错误（公开信号数量/顺序与声明不一致）
	ErrMalformedCircuit = errors.New("malformed circuit")

	// ErrCircuitCompilationFailed 电路编译失败错误
	ErrCircuitCompilationFailed = errors.New("circuit compilation failed")

	// ErrTranscriptDiscontinuity 设置谱系断链错误（贡献未从紧邻的前驱谱系延伸）
	// 该错误不可重试：断链意味着谱系被篡改
	ErrTranscriptDiscontinuity = errors.New("transcript discontinuity")

	// ErrCeremonyFinalized 设置仪式已封存错误
	ErrCeremonyFinalized = errors.New("ceremony already finalized")

	// ErrUnsatisfiableConstraint 约束不可满足错误（输入超出声明位宽的取值域）
	ErrUnsatisfiableConstraint = errors.New("unsatisfiable constraint")

	// ErrInvalidWitness 无效见证错误（见证不满足全部约束门）
	ErrInvalidWitness = errors.New("invalid witness")

	// ErrMalformedProof 畸形证明错误（群元素不在曲线上 / 公开信号数量不符）
	ErrMalformedProof = errors.New("malformed proof")

	// ErrPublicSignalMismatch 公开信号不匹配（与资源登记的要求或resourceId不符）
	ErrPublicSignalMismatch = errors.New("public signal mismatch")

	// ErrUnregisteredResource 未注册资源错误
	ErrUnregisteredResource = errors.New("unregistered resource")

	// ErrUnsupportedScheme 不支持的证明方案错误
	ErrUnsupportedScheme = errors.New("unsupported proving scheme")

	// ErrVerificationKeyMissing 验证密钥未配置错误
	ErrVerificationKeyMissing = errors.New("verification key not configured")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapMalformedCircuitError 包装电路畸形错误
func WrapMalformedCircuitError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedCircuit, reason)
}

// WrapCircuitCompilationFailedError 包装电路编译失败错误
func WrapCircuitCompilationFailedError(err error) error {
	return fmt.Errorf("%w: cause=%v", ErrCircuitCompilationFailed, err)
}

// WrapTranscriptDiscontinuityError 包装设置谱系断链错误
func WrapTranscriptDiscontinuityError(index uint32, reason string) error {
	return fmt.Errorf("%w: contribution=%d, reason=%s", ErrTranscriptDiscontinuity, index, reason)
}

// WrapUnsatisfiableConstraintError 包装约束不可满足错误
func WrapUnsatisfiableConstraintError(signal string, reason string) error {
	return fmt.Errorf("%w: signal=%s, reason=%s", ErrUnsatisfiableConstraint, signal, reason)
}

// WrapInvalidWitnessError 包装无效见证错误
func WrapInvalidWitnessError(reason string) error {
	return fmt.Errorf("%w: reason=%s", ErrInvalidWitness, reason)
}

// WrapMalformedProofError 包装畸形证明错误
func WrapMalformedProofError(reason string) error {
	return fmt.Errorf("%w: reason=%s", ErrMalformedProof, reason)
}

// WrapUnregisteredResourceError 包装未注册资源错误
func WrapUnregisteredResourceError(resourceID uint64) error {
	return fmt.Errorf("%w: resourceId=%d", ErrUnregisteredResource, resourceID)
}

// WrapUnsupportedSchemeError 包装不支持的证明方案错误
func WrapUnsupportedSchemeError(scheme string) error {
	return fmt.Errorf("%w: scheme=%s", ErrUnsupportedScheme, scheme)
}
