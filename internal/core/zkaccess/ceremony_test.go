package zkaccess

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// ceremony.go / transcript.go 测试
// ============================================================================

// newTestCeremony 初始化一个带两方贡献的转录本
func newTestCeremony(t *testing.T) (*SetupManager, *SetupTranscript) {
	t.Helper()
	f := setupFixture(t)

	manager := NewSetupManager(f.logger, nil)
	transcript, err := manager.Initialize(f.ccs, testTauPower)
	require.NoError(t, err)

	for _, contributor := range []string{"alice", "bob"} {
		entropy := make([]byte, 32)
		_, err := rand.Read(entropy)
		require.NoError(t, err)
		require.NoError(t, manager.Contribute(transcript, contributor, entropy))
	}
	return manager, transcript
}

// TestSetupManager_Initialize 测试仪式初始化与创世记录
func TestSetupManager_Initialize(t *testing.T) {
	f := setupFixture(t)
	manager := NewSetupManager(f.logger, nil)

	transcript, err := manager.Initialize(f.ccs, testTauPower)
	require.NoError(t, err)
	require.Equal(t, 1, transcript.Len())
	require.Equal(t, "genesis", transcript.Contributions[0].ContributorID)
	require.False(t, transcript.Finalized())
	require.NoError(t, transcript.verifyChain())
}

// TestSetupManager_InitializeDerivesPower 测试幂次为0时按电路评估域推导
func TestSetupManager_InitializeDerivesPower(t *testing.T) {
	f := setupFixture(t)
	manager := NewSetupManager(f.logger, nil)

	transcript, err := manager.Initialize(f.ccs, 0)
	require.NoError(t, err)
	require.Equal(t, RequiredTauPower(f.ccs), transcript.Power)

	// 推导出的幂次正好是约束数的下一个2的幂
	n := f.ccs.GetNbConstraints()
	require.GreaterOrEqual(t, 1<<uint(transcript.Power), n)
	require.Less(t, 1<<uint(transcript.Power-1), n)
}

// TestSetupManager_InitializePowerMismatch 测试幂次与评估域不符时拒绝，偏大偏小都算
func TestSetupManager_InitializePowerMismatch(t *testing.T) {
	f := setupFixture(t)
	manager := NewSetupManager(f.logger, nil)
	required := RequiredTauPower(f.ccs)

	_, err := manager.Initialize(f.ccs, required-1)
	require.Error(t, err)

	// 偏大的幂次会让SRS长度超出评估域，证明阶段必然失配
	_, err = manager.Initialize(f.ccs, required+1)
	require.Error(t, err)
}

// TestSetupManager_Contribute 测试贡献追加与哈希链
func TestSetupManager_Contribute(t *testing.T) {
	_, transcript := newTestCeremony(t)

	require.Equal(t, 3, transcript.Len())
	require.NoError(t, transcript.verifyChain())

	// 链式链接：每条记录的ParentDigest指向前驱
	for i := 1; i < transcript.Len(); i++ {
		require.Equal(t,
			transcript.Contributions[i-1].Digest,
			transcript.Contributions[i].ParentDigest)
	}
}

// TestSetupManager_ContributeZeroesEntropy 测试私有熵在返回后被清零
func TestSetupManager_ContributeZeroesEntropy(t *testing.T) {
	f := setupFixture(t)
	manager := NewSetupManager(f.logger, nil)
	transcript, err := manager.Initialize(f.ccs, testTauPower)
	require.NoError(t, err)

	entropy := make([]byte, 32)
	_, err = rand.Read(entropy)
	require.NoError(t, err)

	require.NoError(t, manager.Contribute(transcript, "alice", entropy))
	require.Equal(t, make([]byte, 32), entropy)
}

// TestSetupManager_ContributeEmptyEntropy 测试空熵被拒绝
func TestSetupManager_ContributeEmptyEntropy(t *testing.T) {
	f := setupFixture(t)
	manager := NewSetupManager(f.logger, nil)
	transcript, err := manager.Initialize(f.ccs, testTauPower)
	require.NoError(t, err)

	err = manager.Contribute(transcript, "alice", nil)
	require.ErrorIs(t, err, ErrInvalidWitness)
}

// TestTranscript_TamperDetection 测试篡改历史记录后链校验失败
func TestTranscript_TamperDetection(t *testing.T) {
	manager, transcript := newTestCeremony(t)

	// 篡改中间记录的贡献者
	transcript.Contributions[1].ContributorID = "mallory"

	err := transcript.verifyChain()
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)

	// 篡改后的转录本拒绝继续接收贡献
	entropy := make([]byte, 32)
	_, rerr := rand.Read(entropy)
	require.NoError(t, rerr)
	err = manager.Contribute(transcript, "carol", entropy)
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)
}

// TestTranscript_TruncationDetection 测试删除尾部记录后参数摘要对不上
func TestTranscript_TruncationDetection(t *testing.T) {
	_, transcript := newTestCeremony(t)

	transcript.Contributions = transcript.Contributions[:2]
	err := transcript.verifyChain()
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)
}

// TestTranscript_Roundtrip 测试转录本序列化往返
func TestTranscript_Roundtrip(t *testing.T) {
	_, transcript := newTestCeremony(t)

	var buf bytes.Buffer
	_, err := transcript.WriteTo(&buf)
	require.NoError(t, err)

	var restored SetupTranscript
	_, err = restored.ReadFrom(&buf)
	require.NoError(t, err)

	require.Equal(t, transcript.CircuitDigest, restored.CircuitDigest)
	require.Equal(t, transcript.Power, restored.Power)
	require.Equal(t, transcript.Contributions, restored.Contributions)
	require.NoError(t, restored.verifyChain())
}

// TestTranscript_ReadRejectsGarbage 测试畸形字节流被拒绝
func TestTranscript_ReadRejectsGarbage(t *testing.T) {
	var restored SetupTranscript
	_, err := restored.ReadFrom(bytes.NewReader([]byte("not a transcript")))
	require.Error(t, err)
}

// TestTranscript_ReadRejectsOversizedCount 测试声称海量记录数的头部在分配前被拒绝
//
// 转录本跨信任边界传递，记录数是攻击者可控字段，
// 纯头部伪造不应触发按声明规模的内存分配。
func TestTranscript_ReadRejectsOversizedCount(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, transcriptMagic)
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint32(8))
	buf.Write(make([]byte, 32))
	binary.Write(&buf, binary.BigEndian, uint32(8_000_000))

	var restored SetupTranscript
	_, err := restored.ReadFrom(&buf)
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)
	require.Empty(t, restored.Contributions)
}

// TestTranscript_ReadTruncatedStream 测试截断字节流报带定位上下文的错误
func TestTranscript_ReadTruncatedStream(t *testing.T) {
	_, transcript := newTestCeremony(t)

	var buf bytes.Buffer
	_, err := transcript.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()

	// 在记录数字段中间截断
	var restored SetupTranscript
	_, err = restored.ReadFrom(bytes.NewReader(raw[:43]))
	require.Error(t, err)
	require.Contains(t, err.Error(), "记录数")

	// 在创世记录中间截断
	var restored2 SetupTranscript
	_, err = restored2.ReadFrom(bytes.NewReader(raw[:60]))
	require.Error(t, err)
	require.Contains(t, err.Error(), "贡献记录")
}

// TestSetupManager_Finalize 测试定格与密钥导出
func TestSetupManager_Finalize(t *testing.T) {
	f := setupFixture(t)
	manager, transcript := newTestCeremony(t)

	pk, vk, err := manager.Finalize(transcript, f.ccs)
	require.NoError(t, err)
	require.NotNil(t, pk)
	require.NotNil(t, vk)
	require.True(t, transcript.Finalized())

	// 定格后拒绝追加与重复定格
	entropy := make([]byte, 32)
	_, rerr := rand.Read(entropy)
	require.NoError(t, rerr)
	err = manager.Contribute(transcript, "late", entropy)
	require.ErrorIs(t, err, ErrCeremonyFinalized)

	_, _, err = manager.Finalize(transcript, f.ccs)
	require.ErrorIs(t, err, ErrCeremonyFinalized)
}

// TestSetupManager_FinalizedKeysProve 测试按电路评估域定格的密钥能实际出证并通过验证
//
// 密钥对与评估域失配时出证阶段的多标量乘法会直接失败，
// 该用例覆盖从仪式到证明再到验证的完整链路。
func TestSetupManager_FinalizedKeysProve(t *testing.T) {
	f := setupFixture(t)
	manager, transcript := newTestCeremony(t)

	pk, vk, err := manager.Finalize(transcript, f.ccs)
	require.NoError(t, err)

	prover, err := NewProver(f.logger, f.scheme, f.ccs, pk, vk)
	require.NoError(t, err)

	w, err := GenerateWitness(testCurve, testBitWidth, 9, 4, 42)
	require.NoError(t, err)
	proof, signals, err := prover.Prove(context.Background(), w)
	require.NoError(t, err)

	verifier := newTestVerifier(t, f)
	granted, err := verifier.Verify(context.Background(), proof, signals, vk)
	require.NoError(t, err)
	require.True(t, granted)
}

// TestSetupManager_FinalizeDeterministic 测试定格是累积参数的确定性函数
func TestSetupManager_FinalizeDeterministic(t *testing.T) {
	f := setupFixture(t)
	manager, transcript := newTestCeremony(t)

	// 通过序列化往返拿到同一转录本的两个独立副本
	var buf bytes.Buffer
	_, err := transcript.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()

	var copy1, copy2 SetupTranscript
	_, err = copy1.ReadFrom(bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = copy2.ReadFrom(bytes.NewReader(raw))
	require.NoError(t, err)

	_, vk1, err := manager.Finalize(&copy1, f.ccs)
	require.NoError(t, err)
	_, vk2, err := manager.Finalize(&copy2, f.ccs)
	require.NoError(t, err)

	scheme := f.scheme
	b1, err := scheme.SerializeVerifyingKey(vk1)
	require.NoError(t, err)
	b2, err := scheme.SerializeVerifyingKey(vk2)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

// TestSetupManager_FinalizeRequiresContribution 测试只有创世记录时拒绝定格
func TestSetupManager_FinalizeRequiresContribution(t *testing.T) {
	f := setupFixture(t)
	manager := NewSetupManager(f.logger, nil)
	transcript, err := manager.Initialize(f.ccs, testTauPower)
	require.NoError(t, err)

	_, _, err = manager.Finalize(transcript, f.ccs)
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)
}

// TestSetupManager_FinalizeWrongCircuit 测试换电路后拒绝定格
func TestSetupManager_FinalizeWrongCircuit(t *testing.T) {
	f := setupFixture(t)
	manager, transcript := newTestCeremony(t)

	other, err := CompileCircuit(f.scheme.CurveID(), testBitWidth+1)
	require.NoError(t, err)

	_, _, err = manager.Finalize(transcript, other)
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)
}

// TestAuditTranscript 测试审计视图导出
func TestAuditTranscript(t *testing.T) {
	_, transcript := newTestCeremony(t)

	entries, err := AuditTranscript(transcript)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "genesis", entries[0].ContributorID)
	require.Equal(t, "alice", entries[1].ContributorID)
	require.Equal(t, "bob", entries[2].ContributorID)

	// 篡改后审计报错
	transcript.Contributions[2].Timestamp++
	_, err = AuditTranscript(transcript)
	require.ErrorIs(t, err, ErrTranscriptDiscontinuity)
}
