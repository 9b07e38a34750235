package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/pkg/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "합성 설정 관리",
	Long: `합성 YAML 설정을 검증하거나 출력합니다.

Subcommands:
  validate - 설정 검증 및 경고 표시
  show     - 적용될 설정 YAML 출력

Example:
  go run ./cmd/gem config validate --config composite.yaml
  go run ./cmd/gem config show`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "설정 검증",
		RunE:  runConfigValidate,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "설정 출력",
		RunE:  runConfigShow,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ccfg, _, err := compositeconfig.LoadOrDefault(cfg.Composite.ConfigPath)
	if err != nil {
		return fmt.Errorf("❌ invalid compositing config: %w", err)
	}

	hash, err := compositeconfig.Hash(ccfg)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}

	source := cfg.Composite.ConfigPath
	if source == "" {
		source = "(built-in)"
	}

	PrintSuccess("Config is valid")
	PrintKeyValue("source", source, 10)
	PrintKeyValue("config_id", ccfg.Meta.ConfigID, 10)
	PrintKeyValue("hash", hash, 10)
	PrintKeyValue("outputs", fmt.Sprintf("%d", len(ccfg.OutputSpecs())), 10)

	warnings := compositeconfig.Warn(ccfg)
	if len(warnings) > 0 {
		fmt.Println()
		for _, w := range warnings {
			PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
		}
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := newCompositeRuntime(cfg, logger.NewWithWriter(os.Stderr, cfg))
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(rt.configYAML)
	return err
}
