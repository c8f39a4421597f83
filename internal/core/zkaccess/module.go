// Package zkaccess 提供零知识访问服务的 fx 配置
package zkaccess

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/fx"

	zkaccessconfig "github.com/zkgate/v1/internal/config/zkaccess"
	eventimpl "github.com/zkgate/v1/internal/core/infrastructure/event"
	storageimpl "github.com/zkgate/v1/internal/core/infrastructure/storage"
	"github.com/zkgate/v1/pkg/interfaces/access"
	eventIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/event"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
	storageIface "github.com/zkgate/v1/pkg/interfaces/infrastructure/storage"

	"github.com/consensys/gnark/constraint"
)

// ModuleInput 定义 zkaccess 模块的输入依赖
type ModuleInput struct {
	fx.In

	Logger log.Logger
	Config *zkaccessconfig.Config
}

// ModuleOutput 定义 zkaccess 模块的输出服务
type ModuleOutput struct {
	fx.Out

	AccessService access.Service
	Bus           eventIface.EventBus

	// Gateway 暴露具体实现，供密钥轮换控制器与工作线程池使用
	Gateway *Gateway
	Prover  *Prover
	Pool    *VerifyWorkerPool
}

// ProvideServices 提供 zkaccess 模块的所有服务
//
// 装配顺序：方案 → 电路 → 可信设置（加载产物或本地仪式）→ 存储/注册表 → 验证器/证明器 → 网关 → 线程池
func ProvideServices(lc fx.Lifecycle, input ModuleInput) (ModuleOutput, error) {
	cfg := input.Config
	if cfg == nil {
		cfg = zkaccessconfig.New(nil)
	}
	if err := cfg.Validate(); err != nil {
		return ModuleOutput{}, err
	}
	opts := cfg.Options()

	bus := eventimpl.NewBus()

	registry := NewProvingSchemeRegistry(input.Logger)
	scheme, err := registry.GetScheme(opts.Scheme)
	if err != nil {
		return ModuleOutput{}, err
	}

	ccs, err := CompileCircuit(scheme.CurveID(), opts.BitWidth)
	if err != nil {
		return ModuleOutput{}, err
	}

	pk, vk, err := ensureTrustedSetup(input.Logger, bus, scheme, opts, ccs)
	if err != nil {
		return ModuleOutput{}, err
	}

	var store storageIface.KVStore
	if opts.InMemoryStorage {
		store = storageimpl.NewMemoryStore()
	} else {
		store, err = storageimpl.NewBadgerStore(filepath.Join(opts.StoragePath, "registry"), input.Logger)
		if err != nil {
			return ModuleOutput{}, err
		}
	}

	resourceRegistry, err := NewResourceRegistry(input.Logger, store)
	if err != nil {
		store.Close()
		return ModuleOutput{}, err
	}

	verifier, err := NewVerifier(input.Logger, scheme, opts.VerifyCacheMB)
	if err != nil {
		store.Close()
		return ModuleOutput{}, err
	}

	prover, err := NewProver(input.Logger, scheme, ccs, pk, vk)
	if err != nil {
		store.Close()
		return ModuleOutput{}, err
	}

	gateway, err := NewGateway(input.Logger, resourceRegistry, verifier, scheme, bus, vk)
	if err != nil {
		store.Close()
		return ModuleOutput{}, err
	}

	pool := NewVerifyWorkerPool(input.Logger, gateway, opts.VerifyWorkers, opts.VerifyQueueLen)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pool.Stop()
			bus.WaitAsync()
			return store.Close()
		},
	})

	return ModuleOutput{
		AccessService: gateway,
		Bus:           bus,
		Gateway:       gateway,
		Prover:        prover,
		Pool:          pool,
	}, nil
}

// ensureTrustedSetup 加载已有设置产物，缺失时执行本地单机仪式
//
// ⚠️ 本地仪式只适合开发与测试（单方贡献没有多方安全性）；
// 生产部署应离线跑多方仪式后分发 proving.key / verifying.key / transcript.bin。
func ensureTrustedSetup(
	logger log.Logger,
	bus eventIface.EventBus,
	scheme ProvingScheme,
	opts *zkaccessconfig.Options,
	ccs constraint.ConstraintSystem,
) (ProvingKey, VerifyingKey, error) {
	setupDir := filepath.Join(opts.StoragePath, "setup")
	pkPath := filepath.Join(setupDir, ArtifactProvingKeyFile)
	vkPath := filepath.Join(setupDir, ArtifactVerifyingKeyFile)

	if _, err := os.Stat(pkPath); err == nil {
		pk, err := LoadProvingKey(pkPath, scheme.CurveID())
		if err != nil {
			return nil, nil, err
		}
		vk, err := LoadVerifyingKey(vkPath, scheme.CurveID())
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("可信设置产物已加载: %s", setupDir)
		return pk, vk, nil
	}

	logger.Warnf("未发现可信设置产物，执行本地单机仪式（仅供开发环境）")
	return localCeremony(logger, bus, opts, ccs, setupDir)
}

// localCeremony 单机跑一轮完整仪式并落盘产物
func localCeremony(
	logger log.Logger,
	bus eventIface.EventBus,
	opts *zkaccessconfig.Options,
	ccs constraint.ConstraintSystem,
	setupDir string,
) (ProvingKey, VerifyingKey, error) {
	manager := NewSetupManager(logger, bus)

	transcript, err := manager.Initialize(ccs, opts.TauPower)
	if err != nil {
		return nil, nil, err
	}

	entropy := make([]byte, 32)
	if _, err := rand.Read(entropy); err != nil {
		return nil, nil, fmt.Errorf("读取系统熵失败: %w", err)
	}
	if err := manager.Contribute(transcript, "local", entropy); err != nil {
		return nil, nil, err
	}

	pk, vk, err := manager.Finalize(transcript, ccs)
	if err != nil {
		return nil, nil, err
	}

	// 产物落盘；失败只告警，内存中的密钥仍然可用
	if err := SaveArtifact(filepath.Join(setupDir, ArtifactProvingKeyFile), pk); err != nil {
		logger.Warnf("证明密钥落盘失败: %v", err)
	}
	if err := SaveArtifact(filepath.Join(setupDir, ArtifactVerifyingKeyFile), vk); err != nil {
		logger.Warnf("验证密钥落盘失败: %v", err)
	}
	if err := SaveArtifact(filepath.Join(setupDir, ArtifactTranscriptFile), transcript); err != nil {
		logger.Warnf("转录本落盘失败: %v", err)
	}

	return pk, vk, nil
}

// Module 返回 zkaccess 模块的 fx 配置
func Module() fx.Option {
	return fx.Module("zkaccess",
		fx.Provide(ProvideServices),
	)
}
