// Package zkaccess 实现ZKGATE的零知识访问核心子系统
//
// 📋 **子系统组成**：
// - circuit.go    阈值比较约束系统（固定关系，构造后不可变）
// - transcript.go 可信设置谱系（哈希链式贡献记录）
// - ceremony.go   多方可信设置（powers-of-tau + 电路特化）
// - witness.go    见证生成器
// - prover.go     证明生成器
// - verifier.go   配对方程验证器
// - gateway.go    访问网关（资源注册表 + 判定绑定）
package zkaccess

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// 电路常量
const (
	// CircuitID 电路标识符（全局唯一）
	CircuitID = "permission_threshold"

	// CircuitVersion 电路版本号
	CircuitVersion uint32 = 1

	// DefaultBitWidth 默认权限位宽W
	DefaultBitWidth = 32

	// maxBitWidth 位宽上限
	// 带偏移的比较需要W+1位，uint64输入要求W≤62以留出安全余量
	maxBitWidth = 62

	// resourceIDBits resourceId的位宽
	// resourceId不参与比较，但必须被约束进证明，否则证明可以跨资源重放
	resourceIDBits = 64
)

// 公开信号在电路声明中的位置（与PublicSignals向量逐位对应）
const (
	SignalRequiredPermission = iota
	SignalResourceID
	SignalAccessGranted

	// NumPublicSignals 公开信号总数
	NumPublicSignals
)

// PermissionCircuit 权限阈值比较电路
//
// 🎯 **验证目标**：在不泄露UserPermission的前提下证明
// UserPermission ≥ RequiredPermission（含等于）
//
// 🏗️ **电路结构**：
// - 公开输入（声明顺序即公开信号顺序，gnark按声明顺序处理公开输入）：
//   RequiredPermission、ResourceID、AccessGranted
// - 私有输入：UserPermission
//
// ⚠️ 比较门仅在声明位宽内可靠：超出位宽的输入在电路内无法满足
// 范围约束，属于未定义行为而非静默截断。
type PermissionCircuit struct {
	// 公开输入（顺序重要！）
	RequiredPermission frontend.Variable `gnark:",public"`
	ResourceID         frontend.Variable `gnark:",public"`
	AccessGranted      frontend.Variable `gnark:",public"`

	// 私有输入
	UserPermission frontend.Variable

	// bitWidth 比较位宽W；0表示DefaultBitWidth（仅编译时使用，不进入见证）
	bitWidth int
}

// NewPermissionCircuit 创建用于编译的电路定义
func NewPermissionCircuit(bitWidth int) *PermissionCircuit {
	return &PermissionCircuit{bitWidth: bitWidth}
}

// Define 定义电路约束
//
// 🎯 **约束设计**：
// 1. 对 UserPermission、RequiredPermission 做W位分解 —— 既是范围证明，
//    也是比较门可靠性的前提（两个比较值都必须被证明落在位宽内）；
// 2. 对 ResourceID 做64位分解，把它绑定进约束系统（防跨资源重放）；
// 3. 计算 UserPermission - RequiredPermission + 2^W 并做W+1位分解，
//    最高位即比较结果：差值 ≥ 2^W 当且仅当 UserPermission ≥ RequiredPermission，
//    等于阈值时差值恰为 2^W，最高位为1，满足"含等于"的语义；
// 4. 强制 AccessGranted 等于该比较位（输出信号不可由证明者自由选择）。
func (c *PermissionCircuit) Define(api frontend.API) error {
	w := c.bitWidth
	if w == 0 {
		w = DefaultBitWidth
	}

	// 范围证明：两个比较值必须落在声明位宽内
	api.ToBinary(c.UserPermission, w)
	api.ToBinary(c.RequiredPermission, w)

	// resourceId绑定
	api.ToBinary(c.ResourceID, resourceIDBits)

	// 含等于的阈值比较
	offset := new(big.Int).Lsh(big.NewInt(1), uint(w))
	shifted := api.Add(api.Sub(c.UserPermission, c.RequiredPermission), offset)
	bits := api.ToBinary(shifted, w+1)

	api.AssertIsEqual(c.AccessGranted, bits[w])

	return nil
}

// CompileCircuit 编译阈值比较电路为R1CS约束系统
func CompileCircuit(curveID ecc.ID, bitWidth int) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(curveID.ScalarField(), r1cs.NewBuilder, NewPermissionCircuit(bitWidth))
	if err != nil {
		return nil, WrapCircuitCompilationFailedError(err)
	}
	return ccs, nil
}

// CircuitLayout 公开信号布局（声明的公开接口）
type CircuitLayout struct {
	// Names 公开信号名称，按电路声明顺序
	Names []string
}

// DefaultLayout 返回阈值比较电路的公开信号布局
func DefaultLayout() CircuitLayout {
	return CircuitLayout{
		Names: []string{"required_permission", "resource_id", "access_granted"},
	}
}

// Validate 校验一个公开信号向量与声明布局的一致性
//
// 数量不符或信号缺失即为电路/信号畸形；验证在不一致的向量上没有意义。
func (l CircuitLayout) Validate(signals PublicSignals) error {
	if len(l.Names) != NumPublicSignals {
		return WrapMalformedCircuitError("declared public-signal list has unexpected length")
	}
	if len(signals) != len(l.Names) {
		return WrapMalformedCircuitError("public-signal count does not match declared layout")
	}
	for i, s := range signals {
		if s == nil {
			return WrapMalformedCircuitError("nil public signal at position " + l.Names[i])
		}
		if s.Sign() < 0 {
			return WrapMalformedCircuitError("negative public signal at position " + l.Names[i])
		}
	}
	if g := signals[SignalAccessGranted]; g.Cmp(big.NewInt(1)) > 0 {
		return WrapMalformedCircuitError("access_granted signal must be boolean")
	}
	return nil
}
