package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/backend/internal/metadata"
	"github.com/wonny/gem/backend/pkg/logger"
)

// intervalsCmd represents the intervals command
var intervalsCmd = &cobra.Command{
	Use:   "intervals",
	Short: "기간 분할 및 메타데이터 출력",
	Long: `설정된 날짜 범위의 기간 분할과 출력 메타데이터 레코드를 표시합니다.

Example:
  go run ./cmd/gem intervals
  go run ./cmd/gem intervals --norm-factor 0.0001 --json`,
	RunE: runIntervals,
}

var (
	intervalsNormFactor float64
	intervalsJSON       bool
)

func init() {
	rootCmd.AddCommand(intervalsCmd)

	intervalsCmd.Flags().Float64Var(&intervalsNormFactor, "norm-factor", 1, "메타데이터에 기록할 정규화 계수")
	intervalsCmd.Flags().BoolVar(&intervalsJSON, "json", false, "메타데이터를 JSON 으로 출력")
}

func runIntervals(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(os.Stderr, cfg)

	rt, err := newCompositeRuntime(cfg, log)
	if err != nil {
		return err
	}

	intervals := rt.evaluator.Intervals()
	md, err := metadata.NewEmitter().Emit(intervals, intervalsNormFactor)
	if err != nil {
		return fmt.Errorf("emit metadata: %w", err)
	}

	if intervalsJSON {
		out, err := encodeDocument(metadata.UserData(md), true)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	PrintDoubleSeparator()
	fmt.Printf("  %s (%d intervals)\n", rt.evaluator.Config().Meta.ConfigID, len(intervals))
	PrintSeparator()

	widths := []int{4, 26, 26}
	PrintTableHeader([]string{"#", "start", "end"}, widths)
	for i, iv := range intervals {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i),
			iv.Start.UTC().Format(metadata.TimestampLayout),
			iv.End.UTC().Format(metadata.TimestampLayout),
		}, widths)
	}

	fmt.Println()
	PrintKeyValue("norm_factor", fmt.Sprintf("%g", md.NormFactor), 12)
	PrintKeyValue("scenes", md.Scenes, 12)
	return nil
}
