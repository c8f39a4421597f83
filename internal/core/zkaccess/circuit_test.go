package zkaccess

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// circuit.go 测试
// ============================================================================

// TestPermissionCircuit_Compile 测试电路编译
func TestPermissionCircuit_Compile(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	require.NoError(t, err)
	require.Greater(t, ccs.GetNbConstraints(), 0)
}

// TestPermissionCircuit_GreaterThan 测试权限值高于阈值时电路可满足
func TestPermissionCircuit_GreaterThan(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	assignment := &PermissionCircuit{
		UserPermission:     10,
		RequiredPermission: 5,
		ResourceID:         67890,
		AccessGranted:      1,
	}

	err := test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
	require.NoError(t, err)
}

// TestPermissionCircuit_EqualBoundary 测试权限值恰好等于阈值（包含语义）
func TestPermissionCircuit_EqualBoundary(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	assignment := &PermissionCircuit{
		UserPermission:     5,
		RequiredPermission: 5,
		ResourceID:         1,
		AccessGranted:      1,
	}

	err := test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
	require.NoError(t, err)
}

// TestPermissionCircuit_BelowThreshold 测试权限不足时声明放行不可满足
func TestPermissionCircuit_BelowThreshold(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	assignment := &PermissionCircuit{
		UserPermission:     3,
		RequiredPermission: 5,
		ResourceID:         1,
		AccessGranted:      1, // 谎报放行
	}

	err := test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
	require.Error(t, err)
}

// TestPermissionCircuit_BelowThresholdDenied 测试权限不足但如实声明拒绝时可满足
func TestPermissionCircuit_BelowThresholdDenied(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	assignment := &PermissionCircuit{
		UserPermission:     3,
		RequiredPermission: 5,
		ResourceID:         1,
		AccessGranted:      0,
	}

	err := test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
	require.NoError(t, err)
}

// TestPermissionCircuit_GrantedMustMatch 测试满足阈值时谎报拒绝同样不可满足
func TestPermissionCircuit_GrantedMustMatch(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	assignment := &PermissionCircuit{
		UserPermission:     10,
		RequiredPermission: 5,
		ResourceID:         1,
		AccessGranted:      0, // 谎报拒绝
	}

	err := test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
	require.Error(t, err)
}

// TestPermissionCircuit_OutOfRangeWitness 测试超出位宽的私有输入不可满足
func TestPermissionCircuit_OutOfRangeWitness(t *testing.T) {
	circuit := NewPermissionCircuit(testBitWidth)

	assignment := &PermissionCircuit{
		UserPermission:     1 << testBitWidth, // 超出8位范围
		RequiredPermission: 5,
		ResourceID:         1,
		AccessGranted:      1,
	}

	err := test.IsSolved(circuit, assignment, ecc.BN254.ScalarField())
	require.Error(t, err)
}

// TestCircuitLayout_Validate 测试公开信号布局校验
func TestCircuitLayout_Validate(t *testing.T) {
	layout := DefaultLayout()

	valid := NewPublicSignals(5, 67890, true)
	require.NoError(t, layout.Validate(valid))

	// 数量不足
	err := layout.Validate(valid[:2])
	require.ErrorIs(t, err, ErrMalformedCircuit)

	// nil信号
	withNil := valid.Clone()
	withNil[SignalResourceID] = nil
	err = layout.Validate(withNil)
	require.ErrorIs(t, err, ErrMalformedCircuit)

	// accessGranted不是布尔值
	bad := valid.Clone()
	bad[SignalAccessGranted] = big.NewInt(2)
	err = layout.Validate(bad)
	require.ErrorIs(t, err, ErrMalformedCircuit)
}
