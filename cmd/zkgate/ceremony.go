package main

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/zkgate/v1/internal/core/zkaccess"
)

var contributorName string

// ceremonyCmd 可信设置仪式命令组
var ceremonyCmd = &cobra.Command{
	Use:   "ceremony",
	Short: "多方可信设置仪式",
}

// ceremonyInitCmd 初始化仪式
var ceremonyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "编译电路并初始化设置转录本",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		logger, err := newCLILogger()
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("编译权限阈值电路...")
		scheme := zkaccess.NewGroth16Scheme(logger)
		ccs, err := zkaccess.CompileCircuit(scheme.CurveID(), opts.BitWidth)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.UpdateText("初始化Powers of Tau...")

		manager := zkaccess.NewSetupManager(logger, nil)
		transcript, err := manager.Initialize(ccs, opts.TauPower)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		if err := zkaccess.SaveArtifact(filepath.Join(globalFlags.Dir, zkaccess.ArtifactCircuitFile), ccs); err != nil {
			spinner.Fail(err.Error())
			return err
		}
		if err := zkaccess.SaveArtifact(filepath.Join(globalFlags.Dir, zkaccess.ArtifactTranscriptFile), transcript); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		spinner.Success("仪式已初始化")
		pterm.Info.Printfln("约束数: %d  Powers of Tau规模: 2^%d", ccs.GetNbConstraints(), transcript.Power)
		pterm.Info.Printfln("产物目录: %s", globalFlags.Dir)
		return nil
	},
}

// ceremonyContributeCmd 追加一方贡献
var ceremonyContributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "向仪式注入一方私有随机量",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newCLILogger()
		if err != nil {
			return err
		}

		transcriptPath := filepath.Join(globalFlags.Dir, zkaccess.ArtifactTranscriptFile)
		transcript, err := zkaccess.LoadTranscript(transcriptPath)
		if err != nil {
			return err
		}

		entropy := make([]byte, 64)
		if _, err := rand.Read(entropy); err != nil {
			return fmt.Errorf("读取系统熵失败: %w", err)
		}

		spinner, _ := pterm.DefaultSpinner.Start("注入贡献并校验参数更新...")
		manager := zkaccess.NewSetupManager(logger, nil)
		if err := manager.Contribute(transcript, contributorName, entropy); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		if err := zkaccess.SaveArtifact(transcriptPath, transcript); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		rec := transcript.Contributions[transcript.Len()-1]
		spinner.Success("贡献已入链")
		pterm.Info.Printfln("序号: %d  贡献者: %s  摘要: %s", rec.Index, rec.ContributorID, rec.ShortDigest())
		return nil
	},
}

// ceremonyFinalizeCmd 定格仪式
var ceremonyFinalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "定格仪式并导出证明/验证密钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newCLILogger()
		if err != nil {
			return err
		}

		scheme := zkaccess.NewGroth16Scheme(logger)
		ccs, err := zkaccess.LoadConstraintSystem(filepath.Join(globalFlags.Dir, zkaccess.ArtifactCircuitFile), scheme.CurveID())
		if err != nil {
			return err
		}
		transcriptPath := filepath.Join(globalFlags.Dir, zkaccess.ArtifactTranscriptFile)
		transcript, err := zkaccess.LoadTranscript(transcriptPath)
		if err != nil {
			return err
		}

		spinner, _ := pterm.DefaultSpinner.Start("定格仪式并导出密钥...")
		manager := zkaccess.NewSetupManager(logger, nil)
		pk, vk, err := manager.Finalize(transcript, ccs)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		if err := zkaccess.SaveArtifact(filepath.Join(globalFlags.Dir, zkaccess.ArtifactProvingKeyFile), pk); err != nil {
			spinner.Fail(err.Error())
			return err
		}
		if err := zkaccess.SaveArtifact(filepath.Join(globalFlags.Dir, zkaccess.ArtifactVerifyingKeyFile), vk); err != nil {
			spinner.Fail(err.Error())
			return err
		}
		if err := zkaccess.SaveArtifact(transcriptPath, transcript); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		spinner.Success("仪式已定格")
		pterm.Info.Printfln("贡献方数量: %d（不含创世记录）", transcript.Len()-1)
		return nil
	},
}

// ceremonyAuditCmd 审计转录本
var ceremonyAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "校验转录本哈希链并列出全部贡献",
	RunE: func(cmd *cobra.Command, args []string) error {
		transcript, err := zkaccess.LoadTranscript(filepath.Join(globalFlags.Dir, zkaccess.ArtifactTranscriptFile))
		if err != nil {
			return err
		}

		entries, err := zkaccess.AuditTranscript(transcript)
		if err != nil {
			pterm.Error.Printfln("转录本校验失败: %v", err)
			return err
		}

		rows := pterm.TableData{{"序号", "贡献者", "时间", "摘要"}}
		for _, e := range entries {
			rows = append(rows, []string{
				fmt.Sprintf("%d", e.Index),
				e.ContributorID,
				time.Unix(e.Timestamp, 0).Format(time.RFC3339),
				e.Digest[:16] + "...",
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		pterm.Success.Printfln("哈希链完整: %d条记录", len(entries))
		if transcript.Finalized() {
			pterm.Info.Println("状态: 已定格")
		} else {
			pterm.Info.Println("状态: 接受贡献中")
		}
		return nil
	},
}

func init() {
	ceremonyContributeCmd.Flags().StringVarP(&contributorName, "name", "n", "", "贡献者标识（默认生成UUID）")

	ceremonyCmd.AddCommand(ceremonyInitCmd)
	ceremonyCmd.AddCommand(ceremonyContributeCmd)
	ceremonyCmd.AddCommand(ceremonyFinalizeCmd)
	ceremonyCmd.AddCommand(ceremonyAuditCmd)
}
