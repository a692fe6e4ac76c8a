package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/ragprep/internal/config"
	"github.com/dgallion1/ragprep/internal/parser"
	"github.com/dgallion1/ragprep/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	processInput      string
	processOutput     string
	processConfigPath string
	processShowConfig bool
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the preparation pipeline over documents",
		Long: `Process a document, or a directory of documents, into cleaned
chunks plus structure and report files.

Examples:
  ragprep process --input book.pdf --output out/
  ragprep process --input docs/ --output out/ --config pipeline.yaml
  ragprep process --show-config`,
		RunE: runProcess,
	}

	cmd.Flags().StringVarP(&processInput, "input", "i", "", "Input file or directory")
	cmd.Flags().StringVarP(&processOutput, "output", "o", "ragprep-out", "Output directory")
	cmd.Flags().StringVarP(&processConfigPath, "config", "c", "", "Pipeline config file (YAML)")
	cmd.Flags().BoolVar(&processShowConfig, "show-config", false, "Print the effective config and exit")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(processConfigPath)
	if err != nil {
		return err
	}

	if processShowConfig {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if processInput == "" {
		return fmt.Errorf("--input is required")
	}
	inputs, err := collectInputs(processInput)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no supported documents under %s", processInput)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, slog.Default())

	failed := 0
	for _, input := range inputs {
		name := filepath.Base(input)
		res, err := runner.Run(ctx, input, outputDirFor(processOutput, input, len(inputs) > 1),
			func(phase string) {
				slog.Debug("phase start", "file", name, "phase", phase)
			})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("processing failed", "file", name, "error", err)
			failed++
			continue
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks -> %s\n",
				name, res.Chunking.TotalChunks, res.OutputDir)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(inputs))
	}
	return nil
}

// collectInputs expands a file or directory argument into the list of
// supported documents. A single-file argument is passed through so the
// runner reports its own unsupported-extension error.
func collectInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(path, e.Name()))
	}
	return inputs, nil
}

// outputDirFor gives each document its own directory when processing a
// whole directory of inputs.
func outputDirFor(base, input string, multi bool) string {
	if !multi {
		return base
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(base, stem)
}
