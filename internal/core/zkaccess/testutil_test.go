package zkaccess

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	logimpl "github.com/zkgate/v1/internal/core/infrastructure/log"
	logIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/log"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
)

// testBitWidth 测试用位宽（压低约束数，让仪式在小评估域上快速完成）
const testBitWidth = 8

// testTauPower 测试用Powers of Tau幂次（0=按电路评估域自动推导）
const testTauPower = 0

// testCurve 测试用曲线
const testCurve = ecc.BN254

// testFixture 共享测试夹具
//
// 仪式与电路编译是整个测试套件里最贵的步骤，
// 用sync.Once只跑一次，所有用例共享同一套密钥。
type testFixture struct {
	logger logIface.Logger
	scheme *Groth16Scheme
	ccs    constraint.ConstraintSystem
	pk     ProvingKey
	vk     VerifyingKey
	prover *Prover
}

var (
	fixtureOnce sync.Once
	fixture     *testFixture
	fixtureErr  error
)

// setupFixture 编译电路并跑一轮完整仪式
func setupFixture(t *testing.T) *testFixture {
	t.Helper()

	fixtureOnce.Do(func() {
		logger, err := logimpl.New(&logimpl.Options{
			Level:     logIface.ErrorLevel,
			ToConsole: true,
		})
		if err != nil {
			fixtureErr = err
			return
		}

		scheme := NewGroth16Scheme(logger)

		ccs, err := CompileCircuit(scheme.CurveID(), testBitWidth)
		if err != nil {
			fixtureErr = err
			return
		}

		manager := NewSetupManager(logger, nil)
		transcript, err := manager.Initialize(ccs, testTauPower)
		if err != nil {
			fixtureErr = err
			return
		}

		for _, contributor := range []string{"alice", "bob"} {
			entropy := make([]byte, 32)
			if _, err := rand.Read(entropy); err != nil {
				fixtureErr = err
				return
			}
			if err := manager.Contribute(transcript, contributor, entropy); err != nil {
				fixtureErr = err
				return
			}
		}

		pk, vk, err := manager.Finalize(transcript, ccs)
		if err != nil {
			fixtureErr = err
			return
		}

		prover, err := NewProver(logger, scheme, ccs, pk, vk)
		if err != nil {
			fixtureErr = err
			return
		}

		fixture = &testFixture{
			logger: logger,
			scheme: scheme,
			ccs:    ccs,
			pk:     pk,
			vk:     vk,
			prover: prover,
		}
	})

	require.NoError(t, fixtureErr)
	require.NotNil(t, fixture)
	return fixture
}

// newTestVerifier 带小缓存的验证器
func newTestVerifier(t *testing.T, f *testFixture) *Verifier {
	t.Helper()
	verifier, err := NewVerifier(f.logger, f.scheme, 4)
	require.NoError(t, err)
	return verifier
}
