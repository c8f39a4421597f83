package main

import (
	"context"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/zkgate/v1/internal/core/zkaccess"
)

var proveFlags struct {
	UserPermission     uint64
	RequiredPermission uint64
	ResourceID         uint64
	Output             string
}

// proveCmd 生成权限阈值证明
var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "生成权限阈值证明",
	Long: `加载仪式产物，为给定的权限值/阈值/资源生成零知识证明。

权限明文只在本机参与见证生成，证明文件中不出现权限数值。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		logger, err := newCLILogger()
		if err != nil {
			return err
		}

		scheme := zkaccess.NewGroth16Scheme(logger)
		ccs, err := zkaccess.LoadConstraintSystem(filepath.Join(globalFlags.Dir, zkaccess.ArtifactCircuitFile), scheme.CurveID())
		if err != nil {
			return err
		}
		pk, err := zkaccess.LoadProvingKey(filepath.Join(globalFlags.Dir, zkaccess.ArtifactProvingKeyFile), scheme.CurveID())
		if err != nil {
			return err
		}
		vk, err := zkaccess.LoadVerifyingKey(filepath.Join(globalFlags.Dir, zkaccess.ArtifactVerifyingKeyFile), scheme.CurveID())
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("生成见证与证明...")
		w, err := zkaccess.GenerateWitness(scheme.CurveID(), opts.BitWidth,
			proveFlags.UserPermission, proveFlags.RequiredPermission, proveFlags.ResourceID)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		prover, err := zkaccess.NewProver(logger, scheme, ccs, pk, vk)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		proof, signals, err := prover.Prove(context.Background(), w)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		if err := writeProofFile(proveFlags.Output, proof, signals); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		spinner.Success("证明已生成")
		pterm.Info.Printfln("证明大小: %d字节", len(proof.Proof))
		pterm.Info.Printfln("公开信号: required=%s, resource=%s, granted=%v",
			signals.RequiredPermission(), signals.ResourceID(), signals.AccessGranted())
		pterm.Info.Printfln("输出文件: %s", proveFlags.Output)
		return nil
	},
}

func init() {
	proveCmd.Flags().Uint64VarP(&proveFlags.UserPermission, "user", "u", 0, "持有方权限值（私有，不进入证明文件）")
	proveCmd.Flags().Uint64VarP(&proveFlags.RequiredPermission, "required", "r", 0, "资源要求的权限阈值")
	proveCmd.Flags().Uint64Var(&proveFlags.ResourceID, "resource", 0, "目标资源ID")
	proveCmd.Flags().StringVarP(&proveFlags.Output, "output", "o", "proof.json", "证明输出文件")
	proveCmd.MarkFlagRequired("user")
	proveCmd.MarkFlagRequired("required")
	proveCmd.MarkFlagRequired("resource")
}
