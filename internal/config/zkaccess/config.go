// Package zkaccess 提供ZKGATE核心子系统的配置实现
package zkaccess

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options 零知识访问子系统配置选项
// 专注于核心流程（电路/设置/证明/验证/网关）的简化配置
type Options struct {
	// === 电路配置 ===
	BitWidth int    `yaml:"bit_width"` // 权限值位宽W（比较门仅在该位宽内可靠）
	Scheme   string `yaml:"scheme"`    // 证明方案 ("groth16")
	Curve    string `yaml:"curve"`     // 椭圆曲线 ("bn254")

	// === 可信设置配置 ===
	TauPower int `yaml:"tau_power"` // powers-of-tau规模参数；0=按电路评估域自动推导，显式取值必须与评估域一致

	// === 网关配置 ===
	StoragePath     string `yaml:"storage_path"`      // 资源注册表持久化目录
	InMemoryStorage bool   `yaml:"in_memory_storage"` // 是否使用内存存储（测试用）

	// === 验证器配置 ===
	VerifyCacheMB  int `yaml:"verify_cache_mb"` // 验证结果缓存上限(MB)，0禁用
	VerifyWorkers  int `yaml:"verify_workers"`  // 验证工作线程数
	VerifyQueueLen int `yaml:"verify_queue"`    // 验证任务队列长度
}

// Config 零知识访问子系统配置实现
type Config struct {
	options *Options
}

// New 创建配置实现
//
// 先创建完整的默认配置，再用用户配置覆盖默认值。
func New(userOptions *Options) *Config {
	options := createDefaultOptions()
	if userOptions != nil {
		applyUserOptions(options, userOptions)
	}
	return &Config{options: options}
}

// NewFromFile 从YAML文件创建配置实现
func NewFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	userOptions := &Options{}
	if err := yaml.Unmarshal(data, userOptions); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg := New(userOptions)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options 返回配置选项
func (c *Config) Options() *Options {
	return c.options
}

// Validate 校验配置
func (c *Config) Validate() error {
	o := c.options
	if o.BitWidth <= 0 || o.BitWidth > 62 {
		return fmt.Errorf("非法位宽: %d（容许范围 1..62）", o.BitWidth)
	}
	if o.TauPower != 0 && (o.TauPower < minTauPower || o.TauPower > maxTauPower) {
		return fmt.Errorf("非法tau规模参数: %d（0表示自动推导，显式容许范围 %d..%d）", o.TauPower, minTauPower, maxTauPower)
	}
	if o.Scheme != defaultScheme {
		return fmt.Errorf("不支持的证明方案: %s", o.Scheme)
	}
	if o.Curve != defaultCurve {
		return fmt.Errorf("不支持的椭圆曲线: %s", o.Curve)
	}
	if o.VerifyWorkers <= 0 {
		return fmt.Errorf("非法验证工作线程数: %d", o.VerifyWorkers)
	}
	if !o.InMemoryStorage && o.StoragePath == "" {
		return fmt.Errorf("持久化存储需要指定storage_path")
	}
	return nil
}

// applyUserOptions 应用用户配置覆盖默认值
func applyUserOptions(options *Options, user *Options) {
	if user.BitWidth != 0 {
		options.BitWidth = user.BitWidth
	}
	if user.Scheme != "" {
		options.Scheme = user.Scheme
	}
	if user.Curve != "" {
		options.Curve = user.Curve
	}
	if user.TauPower != 0 {
		options.TauPower = user.TauPower
	}
	if user.StoragePath != "" {
		options.StoragePath = user.StoragePath
	}
	if user.InMemoryStorage {
		options.InMemoryStorage = true
	}
	if user.VerifyCacheMB != 0 {
		options.VerifyCacheMB = user.VerifyCacheMB
	}
	if user.VerifyWorkers != 0 {
		options.VerifyWorkers = user.VerifyWorkers
	}
	if user.VerifyQueueLen != 0 {
		options.VerifyQueueLen = user.VerifyQueueLen
	}
}
