package main

import (
	"context"
	"crypto/rand"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	eventimpl "github.com/zkgate/v1/internal/core/infrastructure/event"
	storageimpl "github.com/zkgate/v1/internal/core/infrastructure/storage"
	"github.com/zkgate/v1/internal/core/zkaccess"
)

// demoCmd 端到端演示
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "端到端演示：仪式 → 注册 → 证明 → 访问判定",
	Long: `在内存中完整走一遍系统流程：

1. 编译权限阈值电路并跑一轮两方可信设置仪式
2. 注册资源67890，要求权限阈值5
3. 权限值10的持有方生成证明并获得放行
4. 权限值3的持有方被拒绝
5. 为另一资源生成的证明重放被拦截`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		logger, err := newCLILogger()
		if err != nil {
			return err
		}
		ctx := context.Background()

		// 1. 电路 + 仪式
		spinner, _ := pterm.DefaultSpinner.Start("编译电路并执行两方可信设置仪式...")
		scheme := zkaccess.NewGroth16Scheme(logger)
		ccs, err := zkaccess.CompileCircuit(scheme.CurveID(), opts.BitWidth)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		manager := zkaccess.NewSetupManager(logger, nil)
		transcript, err := manager.Initialize(ccs, opts.TauPower)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		for _, name := range []string{"alice", "bob"} {
			entropy := make([]byte, 32)
			if _, err := rand.Read(entropy); err != nil {
				spinner.Fail(err.Error())
				return err
			}
			if err := manager.Contribute(transcript, name, entropy); err != nil {
				spinner.Fail(err.Error())
				return err
			}
		}
		pk, vk, err := manager.Finalize(transcript, ccs)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success("仪式完成（alice、bob两方贡献）")

		// 2. 网关装配与资源注册
		store := storageimpl.NewMemoryStore()
		defer store.Close()
		registry, err := zkaccess.NewResourceRegistry(logger, store)
		if err != nil {
			return err
		}
		verifier, err := zkaccess.NewVerifier(logger, scheme, opts.VerifyCacheMB)
		if err != nil {
			return err
		}
		gateway, err := zkaccess.NewGateway(logger, registry, verifier, scheme, eventimpl.NewBus(), vk)
		if err != nil {
			return err
		}

		if err := gateway.Register(ctx, 67890, 5, []byte("machine-readable secret")); err != nil {
			return err
		}
		pterm.Info.Println("资源67890已注册，要求权限阈值5")

		prover, err := zkaccess.NewProver(logger, scheme, ccs, pk, vk)
		if err != nil {
			return err
		}

		// 3. 权限10 → 放行
		w, err := zkaccess.GenerateWitness(scheme.CurveID(), opts.BitWidth, 10, 5, 67890)
		if err != nil {
			return err
		}
		proof, signals, err := prover.Prove(ctx, w)
		if err != nil {
			return err
		}
		decision, err := gateway.RequestAccess(ctx, 67890, proof, signals)
		if err != nil {
			return err
		}
		if decision.Granted {
			pterm.Success.Printfln("权限10的持有方: 放行，载荷%d字节", len(decision.Payload))
		} else {
			pterm.Error.Printfln("权限10的持有方: 意外拒绝 (%s)", decision.Reason)
		}

		// 4. 权限3 → 拒绝
		w, err = zkaccess.GenerateWitness(scheme.CurveID(), opts.BitWidth, 3, 5, 67890)
		if err != nil {
			return err
		}
		proof, signals, err = prover.Prove(ctx, w)
		if err != nil {
			return err
		}
		decision, err = gateway.RequestAccess(ctx, 67890, proof, signals)
		if err != nil {
			return err
		}
		if !decision.Granted {
			pterm.Success.Printfln("权限3的持有方: 拒绝 (%s)", decision.Reason)
		} else {
			pterm.Error.Println("权限3的持有方: 不应放行")
		}

		// 5. 跨资源重放 → 拦截
		if err := gateway.Register(ctx, 11111, 5, []byte("another secret")); err != nil {
			return err
		}
		w, err = zkaccess.GenerateWitness(scheme.CurveID(), opts.BitWidth, 10, 5, 11111)
		if err != nil {
			return err
		}
		proof, signals, err = prover.Prove(ctx, w)
		if err != nil {
			return err
		}
		decision, err = gateway.RequestAccess(ctx, 67890, proof, signals)
		if err != nil {
			return err
		}
		if !decision.Granted {
			pterm.Success.Println("跨资源重放: 已拦截")
		} else {
			pterm.Error.Println("跨资源重放: 不应放行")
		}

		return nil
	},
}
