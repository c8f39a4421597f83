// Package zkaccess 多方可信设置仪式
package zkaccess

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/bits"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/groth16/bn254/mpcsetup"
	"github.com/consensys/gnark/constraint"
	cs "github.com/consensys/gnark/constraint/bn254"
	"github.com/google/uuid"

	eventIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/event"
	logIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
)

// SetupManager 多方可信设置仪式的协调者
//
// 🎯 核心职责：
// 1. 初始化Powers of Tau累积参数与创世转录记录
// 2. 串行接收各方贡献，逐次校验参数更新的正确性
// 3. 定格仪式并导出证明密钥/验证密钥
//
// 📋 安全模型：
// 只要至少一方诚实销毁其私有随机量，最终参数即不可伪造。
// 每次贡献的实际随机量由底层CSPRNG生成且从不离开本函数；
// 调用方提交的熵仅以摘要形式进入审计链。
type SetupManager struct {
	logger logIface.Logger
	bus    eventIface.EventBus
}

// NewSetupManager 创建仪式协调者
func NewSetupManager(logger logIface.Logger, bus eventIface.EventBus) *SetupManager {
	return &SetupManager{
		logger: logger,
		bus:    bus,
	}
}

// RequiredTauPower 返回约束系统所需的Powers of Tau幂次
//
// 密钥导出按约束数的下一个2的幂建立FFT评估域，
// SRS长度必须与评估域基数严格相等：幂次偏小容不下约束，
// 幂次偏大会让证明阶段的多标量乘法长度失配。
func RequiredTauPower(ccs constraint.ConstraintSystem) int {
	n := ccs.GetNbConstraints()
	if n < 2 {
		return 1
	}
	return bits.Len64(uint64(n - 1))
}

// Initialize 初始化转录本
//
// 创世参数由确定性公开种子初始化（电路摘要与幂次可复核），
// 创世记录不含任何私有贡献。power为0时按电路评估域自动推导；
// 显式给定的power必须与评估域一致，偏大偏小都拒绝。
func (m *SetupManager) Initialize(ccs constraint.ConstraintSystem, power int) (*SetupTranscript, error) {
	required := RequiredTauPower(ccs)
	if power == 0 {
		power = required
	}
	if power != required {
		return nil, fmt.Errorf("Powers of Tau幂次%d与电路评估域2^%d不符: constraints=%d",
			power, required, ccs.GetNbConstraints())
	}

	circuitDigest, err := digestConstraintSystem(ccs)
	if err != nil {
		return nil, err
	}

	t := &SetupTranscript{
		CircuitDigest: circuitDigest,
		Power:         power,
		phase1:        mpcsetup.InitPhase1(power),
	}

	// 创世记录：EntropyDigest取自公开种子，任何人可复核
	var seed bytes.Buffer
	seed.Write(circuitDigest[:])
	binary.Write(&seed, binary.BigEndian, uint32(power))

	params, err := t.paramsDigest()
	if err != nil {
		return nil, err
	}

	genesis := Contribution{
		Index:         0,
		ContributorID: "genesis",
		EntropyDigest: sha256.Sum256(seed.Bytes()),
		ParamsDigest:  params,
		Timestamp:     time.Now().Unix(),
	}
	genesis.Digest = genesis.computeDigest()
	t.Contributions = []Contribution{genesis}

	m.logger.Infof("可信设置仪式已初始化: power=%d, constraints=%d, genesis=%s",
		power, ccs.GetNbConstraints(), genesis.ShortDigest())
	return t, nil
}

// Contribute 追加一方贡献
//
// 📋 执行顺序：
// 1. 校验转录本未定格且哈希链完整
// 2. 在累积参数上叠加新的私有随机量（由CSPRNG内部生成）
// 3. 校验新参数相对旧参数的更新正确性，不正确则整体拒绝
// 4. 记账：熵摘要入链，privateEntropy就地清零
//
// ⚠️ privateEntropy仅作为调用方的审计承诺，函数返回后其内容已被清零。
func (m *SetupManager) Contribute(t *SetupTranscript, contributorID string, privateEntropy []byte) error {
	if t.finalized {
		return ErrCeremonyFinalized
	}
	if err := t.verifyChain(); err != nil {
		return err
	}
	if len(privateEntropy) == 0 {
		return WrapInvalidWitnessError("贡献必须携带非空私有熵")
	}
	if contributorID == "" {
		contributorID = uuid.NewString()
	}

	entropyDigest := sha256.Sum256(privateEntropy)
	for i := range privateEntropy {
		privateEntropy[i] = 0
	}

	// 通过序列化往返克隆旧参数，校验失败时不污染转录本
	prev, err := clonePhase1(&t.phase1)
	if err != nil {
		return err
	}

	next, err := clonePhase1(&t.phase1)
	if err != nil {
		return err
	}
	next.Contribute()

	if err := mpcsetup.VerifyPhase1(prev, next); err != nil {
		return WrapTranscriptDiscontinuityError(uint32(len(t.Contributions)),
			fmt.Sprintf("参数更新校验失败: %v", err))
	}

	t.phase1 = *next
	params, err := t.paramsDigest()
	if err != nil {
		return err
	}

	rec := Contribution{
		Index:         uint32(len(t.Contributions)),
		ContributorID: contributorID,
		ParentDigest:  t.head().Digest,
		EntropyDigest: entropyDigest,
		ParamsDigest:  params,
		Timestamp:     time.Now().Unix(),
	}
	rec.Digest = rec.computeDigest()
	t.Contributions = append(t.Contributions, rec)

	m.logger.Infof("贡献已入链: index=%d, contributor=%s, digest=%s",
		rec.Index, contributorID, rec.ShortDigest())
	if m.bus != nil {
		m.bus.Publish(eventIface.EventContributionAppended, rec.Index, contributorID)
	}
	return nil
}

// Finalize 定格仪式并导出密钥对
//
// 定格是累积参数的确定性函数：同一转录本多次定格产出逐字节相同的密钥。
// 定格后转录本拒绝一切追加。
func (m *SetupManager) Finalize(t *SetupTranscript, ccs constraint.ConstraintSystem) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	if t.finalized {
		return nil, nil, ErrCeremonyFinalized
	}
	if err := t.verifyChain(); err != nil {
		return nil, nil, err
	}
	if len(t.Contributions) < 2 {
		return nil, nil, WrapTranscriptDiscontinuityError(0, "定格前至少需要一方真实贡献")
	}

	circuitDigest, err := digestConstraintSystem(ccs)
	if err != nil {
		return nil, nil, err
	}
	if circuitDigest != t.CircuitDigest {
		return nil, nil, WrapTranscriptDiscontinuityError(t.head().Index, "约束系统与转录本绑定的电路不符")
	}

	r1cs, ok := ccs.(*cs.R1CS)
	if !ok {
		return nil, nil, WrapMalformedCircuitError("约束系统不是BN254 R1CS")
	}

	srs1, err := clonePhase1(&t.phase1)
	if err != nil {
		return nil, nil, err
	}
	srs2, evals := mpcsetup.InitPhase2(r1cs, srs1)
	pk, vk := mpcsetup.ExtractKeys(srs1, &srs2, &evals, ccs.GetNbConstraints())

	t.finalized = true
	m.logger.Infof("仪式已定格: contributions=%d, constraints=%d",
		len(t.Contributions), ccs.GetNbConstraints())
	return &pk, &vk, nil
}

// clonePhase1 通过序列化往返深拷贝累积参数
func clonePhase1(src *mpcsetup.Phase1) (*mpcsetup.Phase1, error) {
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("累积参数克隆失败: %w", err)
	}
	var dst mpcsetup.Phase1
	if _, err := dst.ReadFrom(&buf); err != nil {
		return nil, fmt.Errorf("累积参数克隆失败: %w", err)
	}
	return &dst, nil
}

// digestConstraintSystem 计算约束系统的SHA-256摘要
func digestConstraintSystem(ccs constraint.ConstraintSystem) ([32]byte, error) {
	var buf bytes.Buffer
	if _, err := ccs.WriteTo(&buf); err != nil {
		return [32]byte{}, WrapMalformedCircuitError(fmt.Sprintf("约束系统序列化失败: %v", err))
	}
	return sha256.Sum256(buf.Bytes()), nil
}
