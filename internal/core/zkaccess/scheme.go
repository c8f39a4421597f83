package zkaccess

import (
	"bytes"
	"fmt"
	"sync"

	// 基础设施
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"

	// gnark ZK库
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// ============================================================================
// 证明方案抽象
// ============================================================================
//
// 🎯 **目的**：
//   - 抽象证明方案接口，隔离gnark后端细节
//   - 证明器/验证器/网关只面向接口编程
//
// 📋 **设计原则**：
//   - 方案抽象：定义统一的证明方案操作
//   - 显式拒绝：未注册的方案名一律报错，不做静默回退
//
// ============================================================================

// ProvingScheme 证明方案接口
type ProvingScheme interface {
	// SchemeName 返回方案名称
	SchemeName() string

	// CurveName 返回配对曲线名称
	CurveName() string

	// CurveID 返回配对曲线标识
	CurveID() ecc.ID

	// Prove 生成证明
	Prove(compiledCircuit constraint.ConstraintSystem, provingKey ProvingKey, witness witness.Witness) (Proof, error)

	// Verify 验证证明
	Verify(proof Proof, verifyingKey VerifyingKey, publicWitness witness.Witness) error

	// SerializeProof 序列化证明
	SerializeProof(proof Proof) ([]byte, error)

	// DeserializeProof 反序列化证明
	DeserializeProof(data []byte) (Proof, error)

	// SerializeVerifyingKey 序列化验证密钥
	SerializeVerifyingKey(vk VerifyingKey) ([]byte, error)

	// DeserializeVerifyingKey 反序列化验证密钥
	DeserializeVerifyingKey(data []byte) (VerifyingKey, error)

	// GetBuilder 获取电路构建器
	GetBuilder() frontend.NewBuilder
}

// Proof 证明接口（类型擦除）
type Proof interface{}

// ProvingKey 证明密钥接口（类型擦除）
type ProvingKey interface{}

// VerifyingKey 验证密钥接口（类型擦除）
type VerifyingKey interface{}

// Groth16Scheme Groth16证明方案实现
//
// 密钥来源于多方可信设置仪式（见SetupManager），
// 方案本身不提供单方Setup入口。
type Groth16Scheme struct {
	logger log.Logger
	curve  ecc.ID
}

// NewGroth16Scheme 创建Groth16证明方案（BN254曲线）
func NewGroth16Scheme(logger log.Logger) *Groth16Scheme {
	return &Groth16Scheme{
		logger: logger,
		curve:  ecc.BN254,
	}
}

// SchemeName 返回方案名称
func (s *Groth16Scheme) SchemeName() string {
	return "groth16"
}

// CurveName 返回配对曲线名称
func (s *Groth16Scheme) CurveName() string {
	return "bn254"
}

// CurveID 返回配对曲线标识
func (s *Groth16Scheme) CurveID() ecc.ID {
	return s.curve
}

// GetBuilder 获取电路构建器
func (s *Groth16Scheme) GetBuilder() frontend.NewBuilder {
	return r1cs.NewBuilder
}

// Prove 生成证明
//
// Groth16证明生成内部引入新鲜随机量，同一见证两次证明的字节串不同，
// 但都能通过同一验证密钥的验证。
func (s *Groth16Scheme) Prove(compiledCircuit constraint.ConstraintSystem, provingKey ProvingKey, witness witness.Witness) (Proof, error) {
	groth16Pk, ok := provingKey.(groth16.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("无效的Groth16证明密钥类型")
	}

	proof, err := groth16.Prove(compiledCircuit, groth16Pk, witness)
	if err != nil {
		return nil, fmt.Errorf("Groth16 Prove失败: %w", err)
	}
	return proof, nil
}

// Verify 验证证明
func (s *Groth16Scheme) Verify(proof Proof, verifyingKey VerifyingKey, publicWitness witness.Witness) error {
	groth16Proof, ok := proof.(groth16.Proof)
	if !ok {
		return fmt.Errorf("无效的Groth16证明类型")
	}

	vk, ok := verifyingKey.(groth16.VerifyingKey)
	if !ok {
		return fmt.Errorf("无效的Groth16验证密钥类型")
	}

	return groth16.Verify(groth16Proof, vk, publicWitness)
}

// SerializeProof 序列化证明
func (s *Groth16Scheme) SerializeProof(proof Proof) ([]byte, error) {
	groth16Proof, ok := proof.(groth16.Proof)
	if !ok {
		return nil, fmt.Errorf("无效的Groth16证明类型")
	}

	var buf bytes.Buffer
	_, err := groth16Proof.WriteTo(&buf)
	if err != nil {
		return nil, fmt.Errorf("序列化Groth16证明失败: %w", err)
	}

	return buf.Bytes(), nil
}

// DeserializeProof 反序列化证明
//
// ReadFrom内部执行曲线点有效性与子群检查，
// 不在曲线上的点在这里就被拒绝，不会进入配对运算。
func (s *Groth16Scheme) DeserializeProof(data []byte) (Proof, error) {
	proof := groth16.NewProof(s.curve)
	reader := bytes.NewReader(data)

	_, err := proof.ReadFrom(reader)
	if err != nil {
		return nil, WrapMalformedProofError(fmt.Sprintf("反序列化Groth16证明失败: %v", err))
	}
	return proof, nil
}

// SerializeVerifyingKey 序列化验证密钥
func (s *Groth16Scheme) SerializeVerifyingKey(vk VerifyingKey) ([]byte, error) {
	groth16Vk, ok := vk.(groth16.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("无效的Groth16验证密钥类型")
	}

	var buf bytes.Buffer
	_, err := groth16Vk.WriteTo(&buf)
	if err != nil {
		return nil, fmt.Errorf("序列化Groth16验证密钥失败: %w", err)
	}

	return buf.Bytes(), nil
}

// DeserializeVerifyingKey 反序列化验证密钥
func (s *Groth16Scheme) DeserializeVerifyingKey(data []byte) (VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(s.curve)
	reader := bytes.NewReader(data)

	_, err := vk.ReadFrom(reader)
	if err != nil {
		return nil, fmt.Errorf("反序列化Groth16验证密钥失败: %w", err)
	}
	return vk, nil
}

// ProvingSchemeRegistry 证明方案注册表
type ProvingSchemeRegistry struct {
	logger  log.Logger
	schemes map[string]ProvingScheme
	mutex   sync.RWMutex
}

// NewProvingSchemeRegistry 创建证明方案注册表
func NewProvingSchemeRegistry(logger log.Logger) *ProvingSchemeRegistry {
	registry := &ProvingSchemeRegistry{
		logger:  logger,
		schemes: make(map[string]ProvingScheme),
	}

	// 注册默认方案
	registry.RegisterScheme(NewGroth16Scheme(logger))

	return registry
}

// RegisterScheme 注册证明方案
func (r *ProvingSchemeRegistry) RegisterScheme(scheme ProvingScheme) {
	if scheme == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	schemeName := scheme.SchemeName()
	r.schemes[schemeName] = scheme

	if r.logger != nil {
		r.logger.Debugf("注册证明方案: %s", schemeName)
	}
}

// GetScheme 获取证明方案
func (r *ProvingSchemeRegistry) GetScheme(schemeName string) (ProvingScheme, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	scheme, exists := r.schemes[schemeName]
	if !exists {
		return nil, WrapUnsupportedSchemeError(schemeName)
	}

	return scheme, nil
}

// ListSchemes 列出所有注册的方案
func (r *ProvingSchemeRegistry) ListSchemes() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	schemes := make([]string, 0, len(r.schemes))
	for name := range r.schemes {
		schemes = append(schemes, name)
	}

	return schemes
}

// IsSchemeSupported 检查方案是否支持
func (r *ProvingSchemeRegistry) IsSchemeSupported(schemeName string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.schemes[schemeName]
	return exists
}
