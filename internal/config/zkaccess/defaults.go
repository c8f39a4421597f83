// Package zkaccess 提供ZKGATE核心子系统的默认配置
package zkaccess

// 默认配置常量
const (
	// defaultBitWidth 默认权限位宽
	// 32位覆盖权限等级的实际取值空间；超出声明位宽的输入属于未定义行为，
	// 由见证生成器显式拒绝，而不是静默截断
	defaultBitWidth = 32

	// defaultScheme 默认证明方案
	defaultScheme = "groth16"

	// defaultCurve 默认椭圆曲线
	defaultCurve = "bn254"

	// defaultTauPower 默认powers-of-tau规模参数
	// 0表示按电路评估域自动推导；SRS长度必须与评估域严格一致，
	// 写死一个带冗余的幂次会让证明阶段失配
	defaultTauPower = 0

	// minTauPower / maxTauPower 显式指定tau规模参数时的容许范围
	minTauPower = 2
	maxTauPower = 20

	// defaultStoragePath 默认资源注册表存储目录
	defaultStoragePath = "data/registry"

	// defaultVerifyCacheMB 默认验证结果缓存上限(MB)
	defaultVerifyCacheMB = 16

	// defaultVerifyWorkers 默认验证工作线程数
	defaultVerifyWorkers = 4

	// defaultVerifyQueueLen 默认验证任务队列长度
	defaultVerifyQueueLen = 64
)

// createDefaultOptions 创建默认配置
func createDefaultOptions() *Options {
	return &Options{
		BitWidth:        defaultBitWidth,
		Scheme:          defaultScheme,
		Curve:           defaultCurve,
		TauPower:        defaultTauPower,
		StoragePath:     defaultStoragePath,
		InMemoryStorage: false,
		VerifyCacheMB:   defaultVerifyCacheMB,
		VerifyWorkers:   defaultVerifyWorkers,
		VerifyQueueLen:  defaultVerifyQueueLen,
	}
}
