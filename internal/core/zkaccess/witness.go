// Package zkaccess 见证生成
package zkaccess

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
)

// PermissionWitness 权限阈值电路的完整见证
//
// 🎯 核心职责：
// 持有一次证明所需的全部赋值（私有的userPermission与公开信号），
// 并在进入证明器之前完成域外（out-of-circuit）的可满足性预检。
//
// ⚠️ 注意：
// userPermission是敏感值，String()/日志输出一律脱敏。
type PermissionWitness struct {
	bitWidth           int
	userPermission     uint64
	requiredPermission uint64
	resourceID         uint64

	full witness.Witness // 完整见证（含私有赋值）
}

// GenerateWitness 根据明文输入生成完整见证
//
// 📋 输入约束（域外预检，越界输入永远到不了证明器）：
//   - userPermission、requiredPermission 必须落在 [0, 2^bitWidth)
//   - bitWidth 必须落在 [1, 62]，保证带偏移的比较不会溢出标量域
//
// 赋值落在curveID对应的标量域上，与证明方案声明的曲线保持一致。
// 预检失败返回 ErrUnsatisfiableConstraint 包装错误。
func GenerateWitness(curveID ecc.ID, bitWidth int, userPermission, requiredPermission uint64, resourceID uint64) (*PermissionWitness, error) {
	if bitWidth < 1 || bitWidth > maxBitWidth {
		return nil, WrapUnsatisfiableConstraintError("bit_width",
			fmt.Sprintf("位宽%d超出有效范围[1, %d]", bitWidth, maxBitWidth))
	}

	limit := uint64(1) << uint(bitWidth)
	if userPermission >= limit {
		return nil, WrapUnsatisfiableConstraintError("user_permission",
			fmt.Sprintf("权限值%d超出%d位可表示范围", userPermission, bitWidth))
	}
	if requiredPermission >= limit {
		return nil, WrapUnsatisfiableConstraintError("required_permission",
			fmt.Sprintf("阈值%d超出%d位可表示范围", requiredPermission, bitWidth))
	}

	granted := 0
	if userPermission >= requiredPermission {
		granted = 1
	}

	assignment := &PermissionCircuit{
		UserPermission:     userPermission,
		RequiredPermission: requiredPermission,
		ResourceID:         resourceID,
		AccessGranted:      granted,
	}

	full, err := frontend.NewWitness(assignment, curveID.ScalarField())
	if err != nil {
		return nil, WrapInvalidWitnessError(fmt.Sprintf("见证赋值失败: %v", err))
	}

	return &PermissionWitness{
		bitWidth:           bitWidth,
		userPermission:     userPermission,
		requiredPermission: requiredPermission,
		resourceID:         resourceID,
		full:               full,
	}, nil
}

// Full 返回完整见证（仅供证明器消费）
func (w *PermissionWitness) Full() witness.Witness {
	return w.full
}

// PublicSignals 返回该见证对应的公开信号向量
func (w *PermissionWitness) PublicSignals() PublicSignals {
	return NewPublicSignals(w.requiredPermission, w.resourceID, w.userPermission >= w.requiredPermission)
}

// Satisfied 域外重算比较结果，校验见证自洽
func (w *PermissionWitness) Satisfied() bool {
	return w.userPermission < (uint64(1)<<uint(w.bitWidth)) &&
		w.requiredPermission < (uint64(1)<<uint(w.bitWidth))
}

// String 脱敏输出，绝不暴露userPermission明文
func (w *PermissionWitness) String() string {
	return fmt.Sprintf("PermissionWitness{resource=%d, required=%d, user=<redacted>}",
		w.resourceID, w.requiredPermission)
}
