// Package zkaccess 可信设置转录本
package zkaccess

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16/bn254/mpcsetup"
	"github.com/mr-tron/base58"
)

// transcriptMagic 转录本序列化魔数（"ZKGT"）
const transcriptMagic uint32 = 0x5a4b4754

// contributorIDMaxLen 贡献者标识的序列化长度上限
const contributorIDMaxLen = 128

// maxTranscriptContributions 转录本可声明的记录数上限
//
// 转录本在仪式参与方之间跨信任边界传递，
// 记录数先于记录内容读出，必须在分配前封顶，防止伪造头部撑爆内存。
const maxTranscriptContributions = 4096

// Contribution 转录本中的一条贡献记录
//
// 每条记录通过ParentDigest指向前一条记录的Digest，形成哈希链：
// 篡改、删除或重排任何一条历史贡献都会使链在该点断裂。
type Contribution struct {
	// Index 记录序号（0号为创世记录）
	Index uint32

	// ContributorID 贡献者标识（UUID字符串；创世记录为"genesis"）
	ContributorID string

	// ParentDigest 前一条记录的Digest；创世记录为全零
	ParentDigest [32]byte

	// EntropyDigest 贡献者私有随机量的摘要（原始随机量从不落盘）
	EntropyDigest [32]byte

	// ParamsDigest 本次贡献后累积参数的摘要
	ParamsDigest [32]byte

	// Timestamp 记录时间（Unix秒）
	Timestamp int64

	// Digest 本条记录的摘要，链接下一条记录
	Digest [32]byte
}

// computeDigest 计算记录摘要（覆盖除Digest外的全部字段）
func (c *Contribution) computeDigest() [32]byte {
	h := sha256.New()
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], c.Index)
	h.Write(idx[:])
	h.Write([]byte(c.ContributorID))
	h.Write(c.ParentDigest[:])
	h.Write(c.EntropyDigest[:])
	h.Write(c.ParamsDigest[:])
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(c.Timestamp))
	h.Write(ts[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ShortDigest 记录摘要的base58短显示（日志与审计用）
func (c *Contribution) ShortDigest() string {
	return base58.Encode(c.Digest[:8])
}

// SetupTranscript 多方可信设置的累积状态
//
// 🎯 核心职责：
// 1. 持有Powers of Tau的累积参数（phase1）
// 2. 维护贡献记录的哈希链，任何历史篡改都可被检出
// 3. 定格（finalize）后拒绝一切追加
//
// ⚠️ 注意：SetupTranscript不做并发保护，调用方（SetupManager）串行化访问。
type SetupTranscript struct {
	// CircuitDigest 绑定的约束系统摘要；换电路必须换转录本
	CircuitDigest [32]byte

	// Power Powers of Tau的2的幂次
	Power int

	// Contributions 贡献记录链（含创世记录）
	Contributions []Contribution

	phase1    mpcsetup.Phase1
	finalized bool
}

// Finalized 转录本是否已定格
func (t *SetupTranscript) Finalized() bool {
	return t.finalized
}

// Len 贡献记录条数（含创世记录）
func (t *SetupTranscript) Len() int {
	return len(t.Contributions)
}

// head 返回链尾记录
func (t *SetupTranscript) head() *Contribution {
	return &t.Contributions[len(t.Contributions)-1]
}

// paramsDigest 当前累积参数的摘要
func (t *SetupTranscript) paramsDigest() ([32]byte, error) {
	var buf bytes.Buffer
	if _, err := t.phase1.WriteTo(&buf); err != nil {
		return [32]byte{}, fmt.Errorf("累积参数序列化失败: %w", err)
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// verifyChain 逐条校验哈希链的连续性
//
// 校验项：序号连续、ParentDigest指向前驱Digest、每条Digest可重算复现、
// 链尾ParamsDigest与当前累积参数一致。任何一项不符返回ErrTranscriptDiscontinuity。
func (t *SetupTranscript) verifyChain() error {
	if len(t.Contributions) == 0 {
		return WrapTranscriptDiscontinuityError(0, "转录本为空，缺少创世记录")
	}

	var parent [32]byte
	for i := range t.Contributions {
		rec := &t.Contributions[i]
		if rec.Index != uint32(i) {
			return WrapTranscriptDiscontinuityError(uint32(i),
				fmt.Sprintf("序号不连续: 期望%d实际%d", i, rec.Index))
		}
		if rec.ParentDigest != parent {
			return WrapTranscriptDiscontinuityError(uint32(i), "父摘要与前驱记录不符")
		}
		if rec.computeDigest() != rec.Digest {
			return WrapTranscriptDiscontinuityError(uint32(i), "记录摘要无法复现")
		}
		parent = rec.Digest
	}

	current, err := t.paramsDigest()
	if err != nil {
		return err
	}
	if current != t.head().ParamsDigest {
		return WrapTranscriptDiscontinuityError(t.head().Index, "累积参数与链尾记录不符")
	}
	return nil
}

// WriteTo 序列化转录本
//
// 布局: magic | finalized | power | circuitDigest | 记录数 | 记录... | phase1长度 | phase1
func (t *SetupTranscript) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	binary.Write(&buf, binary.BigEndian, transcriptMagic)
	flag := byte(0)
	if t.finalized {
		flag = 1
	}
	buf.WriteByte(flag)
	binary.Write(&buf, binary.BigEndian, uint32(t.Power))
	buf.Write(t.CircuitDigest[:])

	binary.Write(&buf, binary.BigEndian, uint32(len(t.Contributions)))
	for i := range t.Contributions {
		rec := &t.Contributions[i]
		binary.Write(&buf, binary.BigEndian, rec.Index)
		id := []byte(rec.ContributorID)
		binary.Write(&buf, binary.BigEndian, uint16(len(id)))
		buf.Write(id)
		buf.Write(rec.ParentDigest[:])
		buf.Write(rec.EntropyDigest[:])
		buf.Write(rec.ParamsDigest[:])
		binary.Write(&buf, binary.BigEndian, uint64(rec.Timestamp))
		buf.Write(rec.Digest[:])
	}

	var p1 bytes.Buffer
	if _, err := t.phase1.WriteTo(&p1); err != nil {
		return 0, fmt.Errorf("累积参数序列化失败: %w", err)
	}
	binary.Write(&buf, binary.BigEndian, uint64(p1.Len()))
	buf.Write(p1.Bytes())

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom 反序列化转录本并立即做链校验
func (t *SetupTranscript) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}

	var magic uint32
	if err := binary.Read(cr, binary.BigEndian, &magic); err != nil {
		return cr.n, fmt.Errorf("读取魔数失败: %w", err)
	}
	if magic != transcriptMagic {
		return cr.n, WrapTranscriptDiscontinuityError(0, "魔数不符，不是有效转录本")
	}

	var flag [1]byte
	if _, err := io.ReadFull(cr, flag[:]); err != nil {
		return cr.n, fmt.Errorf("读取定格标志失败（流截断）: %w", err)
	}
	t.finalized = flag[0] == 1

	var power uint32
	if err := binary.Read(cr, binary.BigEndian, &power); err != nil {
		return cr.n, fmt.Errorf("读取幂次失败（流截断）: %w", err)
	}
	t.Power = int(power)

	if _, err := io.ReadFull(cr, t.CircuitDigest[:]); err != nil {
		return cr.n, fmt.Errorf("读取电路摘要失败（流截断）: %w", err)
	}

	var count uint32
	if err := binary.Read(cr, binary.BigEndian, &count); err != nil {
		return cr.n, fmt.Errorf("读取记录数失败（流截断）: %w", err)
	}
	if count > maxTranscriptContributions {
		return cr.n, WrapTranscriptDiscontinuityError(0,
			fmt.Sprintf("声明记录数%d超出上限%d", count, maxTranscriptContributions))
	}
	t.Contributions = make([]Contribution, count)
	for i := range t.Contributions {
		rec := &t.Contributions[i]
		if err := binary.Read(cr, binary.BigEndian, &rec.Index); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		var idLen uint16
		if err := binary.Read(cr, binary.BigEndian, &idLen); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		if idLen > contributorIDMaxLen {
			return cr.n, WrapTranscriptDiscontinuityError(uint32(i), "贡献者标识超长")
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(cr, id); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		rec.ContributorID = string(id)
		if _, err := io.ReadFull(cr, rec.ParentDigest[:]); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		if _, err := io.ReadFull(cr, rec.EntropyDigest[:]); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		if _, err := io.ReadFull(cr, rec.ParamsDigest[:]); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		var ts uint64
		if err := binary.Read(cr, binary.BigEndian, &ts); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
		rec.Timestamp = int64(ts)
		if _, err := io.ReadFull(cr, rec.Digest[:]); err != nil {
			return cr.n, fmt.Errorf("读取贡献记录%d失败（流截断）: %w", i, err)
		}
	}

	var p1Len uint64
	if err := binary.Read(cr, binary.BigEndian, &p1Len); err != nil {
		return cr.n, fmt.Errorf("读取累积参数长度失败（流截断）: %w", err)
	}
	if _, err := t.phase1.ReadFrom(io.LimitReader(cr, int64(p1Len))); err != nil {
		return cr.n, fmt.Errorf("累积参数反序列化失败: %w", err)
	}

	if err := t.verifyChain(); err != nil {
		return cr.n, err
	}
	return cr.n, nil
}

// countingReader 统计已读字节数
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// AuditEntry 单条贡献的审计视图
type AuditEntry struct {
	Index         uint32 `json:"index"`
	ContributorID string `json:"contributor_id"`
	Digest        string `json:"digest"`
	ParentDigest  string `json:"parent_digest"`
	Timestamp     int64  `json:"timestamp"`
}

// AuditTranscript 校验哈希链并导出审计视图
//
// 链校验失败时返回错误，调用方据此判定转录本被篡改。
func AuditTranscript(t *SetupTranscript) ([]AuditEntry, error) {
	if err := t.verifyChain(); err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0, len(t.Contributions))
	for i := range t.Contributions {
		rec := &t.Contributions[i]
		entries = append(entries, AuditEntry{
			Index:         rec.Index,
			ContributorID: rec.ContributorID,
			Digest:        base58.Encode(rec.Digest[:]),
			ParentDigest:  base58.Encode(rec.ParentDigest[:]),
			Timestamp:     rec.Timestamp,
		})
	}
	return entries, nil
}
