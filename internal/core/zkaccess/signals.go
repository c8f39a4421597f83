// Package zkaccess 公开信号向量
package zkaccess

import (
	"crypto/sha256"
	"math/big"
)

// PublicSignals 有序公开信号向量
//
// 与电路声明的公开接口逐位对应：[requiredPermission, resourceId, accessGranted]。
// 验证方必须按这个确切的顺序和数量消费该向量，否则验证没有意义。
type PublicSignals []*big.Int

// NewPublicSignals 按声明顺序构造公开信号向量
func NewPublicSignals(requiredPermission uint64, resourceID uint64, accessGranted bool) PublicSignals {
	granted := big.NewInt(0)
	if accessGranted {
		granted = big.NewInt(1)
	}
	return PublicSignals{
		new(big.Int).SetUint64(requiredPermission),
		new(big.Int).SetUint64(resourceID),
		granted,
	}
}

// RequiredPermission 返回requiredPermission信号
func (s PublicSignals) RequiredPermission() *big.Int {
	return s[SignalRequiredPermission]
}

// ResourceID 返回resourceId信号
func (s PublicSignals) ResourceID() *big.Int {
	return s[SignalResourceID]
}

// AccessGranted 返回电路输出信号是否为1
func (s PublicSignals) AccessGranted() bool {
	return s[SignalAccessGranted].Cmp(big.NewInt(1)) == 0
}

// Clone 深拷贝信号向量
func (s PublicSignals) Clone() PublicSignals {
	out := make(PublicSignals, len(s))
	for i, v := range s {
		if v != nil {
			out[i] = new(big.Int).Set(v)
		}
	}
	return out
}

// Digest 计算信号向量的SHA-256摘要（定长编码，位置敏感）
//
// 用作验证结果缓存键的一部分；置换信号顺序必然改变摘要。
func (s PublicSignals) Digest() []byte {
	h := sha256.New()
	for _, v := range s {
		var buf [32]byte
		if v != nil {
			v.FillBytes(buf[:])
		}
		h.Write(buf[:])
	}
	return h.Sum(nil)
}
