package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wonny/gem/backend/internal/audit"
	"github.com/wonny/gem/backend/internal/composite"
	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/internal/metadata"
	"github.com/wonny/gem/backend/internal/metrics"
	"github.com/wonny/gem/backend/pkg/config"
	"github.com/wonny/gem/backend/pkg/logger"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "픽셀 배치 합성",
	Long: `배치 입력 문서를 읽어 픽셀별 합성 결과 문서를 씁니다.

입력 문서:
  {"normalization_factor": 0.0001,
   "pixels": [{"id": "...", "samples": [...], "scenes": [...]}]}

로그는 stderr 로 출력되므로 --output - 과 함께 파이프로 사용할 수 있습니다.

Example:
  go run ./cmd/gem evaluate --input pixels.json --output composite.json
  cat pixels.json | go run ./cmd/gem evaluate --input - --output -`,
	RunE: runEvaluate,
}

var (
	evalInput  string
	evalOutput string
	evalPretty bool
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evalInput, "input", "i", "-", "배치 입력 파일 (- = stdin)")
	evaluateCmd.Flags().StringVarP(&evalOutput, "output", "o", "-", "결과 파일 (- = stdout)")
	evaluateCmd.Flags().BoolVar(&evalPretty, "pretty", false, "들여쓰기된 JSON 출력")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(os.Stderr, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newCompositeRuntime(cfg, log)
	if err != nil {
		return err
	}

	data, err := readInput(evalInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var req composite.BatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode batch request: %w", err)
	}

	started := time.Now()
	results, summary, err := rt.batch.Run(ctx, req.Pixels)
	if err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}
	metrics.RecordBatch(audit.SourceCLI, summary)

	md, err := metadata.NewEmitter().Emit(rt.evaluator.Intervals(), req.NormalizationFactor)
	if err != nil {
		return fmt.Errorf("emit metadata: %w", err)
	}

	doc := composite.BatchDocument{
		Metadata: md,
		Pixels:   rt.evaluator.Documents(results),
		Summary:  summary,
	}

	if cfg.Audit.Enabled {
		runID, err := recordRun(ctx, cfg, rt, req.NormalizationFactor, started, summary, log)
		if err != nil {
			return err
		}
		doc.RunID = runID
	}

	out, err := encodeDocument(doc, evalPretty)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := writeOutput(evalOutput, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ %s pixels (%d failed, %s empty slots) in %s, %s written\n",
		humanize.Comma(int64(summary.Pixels)),
		summary.Failed,
		humanize.Comma(int64(summary.EmptySlots)),
		summary.Duration.Round(time.Millisecond),
		humanize.Bytes(uint64(len(out))),
	)
	return nil
}

// recordRun stores the batch in the audit database and returns its id
func recordRun(ctx context.Context, cfg *config.Config, rt *compositeRuntime, normFactor float64, started time.Time, summary *composite.Summary, log *logger.Logger) (string, error) {
	db, repo, err := openAudit(ctx, cfg, log)
	if err != nil {
		return "", err
	}
	defer db.Close()

	hash, err := compositeconfig.Hash(rt.evaluator.Config())
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}

	run := audit.NewRunRecord(audit.RunInfo{
		Source:     audit.SourceCLI,
		ConfigID:   rt.evaluator.Config().Meta.ConfigID,
		ConfigHash: hash,
		ConfigYAML: rt.configYAML,
		NormFactor: normFactor,
		StartedAt:  started,
	}, summary)

	if err := repo.SaveRun(ctx, run); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.RunID.String(), nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func encodeDocument(v interface{}, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
