package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/zkgate/v1/internal/core/zkaccess"
)

var verifyFlags struct {
	ProofFile string
}

// verifyCmd 验证权限阈值证明
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "验证权限阈值证明",
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
		vk, err := zkaccess.LoadVerifyingKey(filepath.Join(globalFlags.Dir, zkaccess.ArtifactVerifyingKeyFile), scheme.CurveID())
		if err != nil {
			return err
		}

		proof, signals, err := readProofFile(verifyFlags.ProofFile)
		if err != nil {
			return err
		}

		verifier, err := zkaccess.NewVerifier(logger, scheme, opts.VerifyCacheMB)
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("执行配对验证...")
		valid, err := verifier.Verify(context.Background(), proof, signals, vk)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		if !valid {
			spinner.Fail("证明验证不通过")
			return fmt.Errorf("证明验证不通过")
		}

		spinner.Success("证明有效")
		pterm.Info.Printfln("公开信号: required=%s, resource=%s, granted=%v",
			signals.RequiredPermission(), signals.ResourceID(), signals.AccessGranted())
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyFlags.ProofFile, "proof", "p", "proof.json", "证明文件路径")
}
