package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/zkgate/v1/internal/core/zkaccess"
	"github.com/zkgate/v1/pkg/interfaces/access"
)

// proofEnvelope 证明文件格式（证明字节 + 公开信号打包）
type proofEnvelope struct {
	Proof               string   `json:"proof"`
	Scheme              string   `json:"scheme"`
	Curve               string   `json:"curve"`
	VerificationKeyHash string   `json:"verification_key_hash"`
	PublicSignals       []string `json:"public_signals"`
}

// writeProofFile 落盘证明与公开信号
func writeProofFile(path string, proof *access.ThresholdProof, signals zkaccess.PublicSignals) error {
	env := proofEnvelope{
		Proof:               base64.StdEncoding.EncodeToString(proof.Proof),
		Scheme:              proof.Scheme,
		Curve:               proof.Curve,
		VerificationKeyHash: base64.StdEncoding.EncodeToString(proof.VerificationKeyHash),
	}
	for _, s := range signals {
		env.PublicSignals = append(env.PublicSignals, s.String())
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("编码证明文件失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readProofFile 加载证明与公开信号
func readProofFile(path string) (*access.ThresholdProof, zkaccess.PublicSignals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("读取证明文件失败: %w", err)
	}

	var env proofEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("解析证明文件失败: %w", err)
	}

	proofBytes, err := base64.StdEncoding.DecodeString(env.Proof)
	if err != nil {
		return nil, nil, fmt.Errorf("解码证明字节失败: %w", err)
	}
	vkHash, err := base64.StdEncoding.DecodeString(env.VerificationKeyHash)
	if err != nil {
		return nil, nil, fmt.Errorf("解码验证密钥哈希失败: %w", err)
	}

	signals := make(zkaccess.PublicSignals, 0, len(env.PublicSignals))
	for _, s := range env.PublicSignals {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, nil, fmt.Errorf("非法公开信号: %s", s)
		}
		signals = append(signals, v)
	}

	return &access.ThresholdProof{
		Proof:               proofBytes,
		Scheme:              env.Scheme,
		Curve:               env.Curve,
		VerificationKeyHash: vkHash,
	}, signals, nil
}
