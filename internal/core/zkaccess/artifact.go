// Package zkaccess 设置产物的持久化
package zkaccess

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
)

// 产物文件名约定
const (
	ArtifactCircuitFile      = "circuit.r1cs"
	ArtifactProvingKeyFile   = "proving.key"
	ArtifactVerifyingKeyFile = "verifying.key"
	ArtifactTranscriptFile   = "transcript.bin"
)

// SaveArtifact 把实现io.WriterTo的产物原子写入文件
//
// 先写临时文件再rename，避免中途崩溃留下半截产物。
func SaveArtifact(path string, artifact io.WriterTo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建产物目录失败: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("创建产物文件失败: %w", err)
	}

	if _, err := artifact.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("写入产物失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("关闭产物文件失败: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadConstraintSystem 从文件加载已编译电路
func LoadConstraintSystem(path string, curveID ecc.ID) (constraint.ConstraintSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开电路文件失败: %w", err)
	}
	defer f.Close()

	ccs := groth16.NewCS(curveID)
	if _, err := ccs.ReadFrom(f); err != nil {
		return nil, WrapMalformedCircuitError(fmt.Sprintf("电路反序列化失败: %v", err))
	}
	return ccs, nil
}

// LoadProvingKey 从文件加载证明密钥
func LoadProvingKey(path string, curveID ecc.ID) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开证明密钥文件失败: %w", err)
	}
	defer f.Close()

	pk := groth16.NewProvingKey(curveID)
	if _, err := pk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("证明密钥反序列化失败: %w", err)
	}
	return pk, nil
}

// LoadVerifyingKey 从文件加载验证密钥
func LoadVerifyingKey(path string, curveID ecc.ID) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开验证密钥文件失败: %w", err)
	}
	defer f.Close()

	vk := groth16.NewVerifyingKey(curveID)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("验证密钥反序列化失败: %w", err)
	}
	return vk, nil
}

// LoadTranscript 从文件加载转录本（加载时自动做哈希链校验）
func LoadTranscript(path string) (*SetupTranscript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开转录本文件失败: %w", err)
	}
	defer f.Close()

	var t SetupTranscript
	if _, err := t.ReadFrom(f); err != nil {
		return nil, err
	}
	return &t, nil
}
