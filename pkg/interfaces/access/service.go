// Package access 提供ZKGATE访问网关的对外公共接口定义
//
// 🎯 **访问网关服务 (Access Gateway Service)**
//
// 本文件定义了资源注册表与访问判定的对外契约，供 CLI / SDK / 宿主执行环境使用。
// 执行环境被视为不透明：它只需要能调用本接口并消费布尔判定结果。
//
// ⚠️ **安全边界**：
// - 本接口只接受证明与公开信号，见证（含私有权限值）绝不跨越此边界
// - RotateVerificationKey 是特权写操作，调用方授权由宿主环境负责
package access

import (
	"context"
	"math/big"
	"time"
)

// Resource 资源条目
//
// 由注册创建，重注册覆盖；本设计中不支持删除。
type Resource struct {
	// ResourceID 资源标识
	ResourceID uint64

	// RequiredPermission 访问该资源要求的最低权限等级（公开）
	RequiredPermission uint64

	// Payload 访问放行后返回的载荷（注册前不做任何解释）
	Payload []byte

	// UpdatedAt 最近一次注册时间
	UpdatedAt time.Time
}

// AccessDecision 访问判定结果（派生值，不持久化）
type AccessDecision struct {
	// Granted 是否放行
	Granted bool

	// Payload 放行时返回的载荷；拒绝时恒为nil
	Payload []byte

	// Reason 拒绝原因（公开信号不匹配、证明验证失败、电路输出为0）
	Reason string
}

// ThresholdProof 阈值比较证明工件
//
// 三组群元素（Groth16的a、b、c）的序列化形式，外加方案与曲线标签。
// 证明本身是常数尺寸的，与电路规模无关。
type ThresholdProof struct {
	// Proof 序列化的证明数据
	Proof []byte

	// Scheme 证明方案标识符（"groth16"）
	Scheme string

	// Curve 椭圆曲线标识符（"bn254"）
	Curve string

	// VerificationKeyHash 生成证明时配对的验证密钥哈希（32字节SHA-256）
	VerificationKeyHash []byte
}

// Service 访问网关对外接口
//
// 公开信号向量的顺序约定为 [requiredPermission, resourceId, accessGranted]，
// 与电路声明的公开接口逐位对应；顺序或数量不符按结构性错误处理。
type Service interface {
	// Register 注册（或重注册）资源；按resourceId幂等，整体原子覆盖
	Register(ctx context.Context, resourceID uint64, requiredPermission uint64, payload []byte) error

	// GetResource 查询资源条目（载荷不返回，只返回公开要求）
	GetResource(ctx context.Context, resourceID uint64) (*Resource, error)

	// RequestAccess 基于证明请求访问
	//
	// 结构性问题（未注册资源、畸形证明）以错误返回；
	// 干净的验证失败与公开信号不匹配是预期结果，以 Granted=false 返回。
	RequestAccess(ctx context.Context, resourceID uint64, proof *ThresholdProof, publicSignals []*big.Int) (*AccessDecision, error)

	// RotateVerificationKey 轮换验证密钥（特权写；入参为可发布的序列化验证密钥）
	RotateVerificationKey(serializedVK []byte) error
}
