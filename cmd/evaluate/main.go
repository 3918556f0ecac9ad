// Command evaluate scores local files from the terminal without the HTTP API or a database.
//
//	evaluate run --type intelligence --file essay.pdf
//	evaluate run --type cogency --file a.txt --compare b.docx --out result.json
//	evaluate sets
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evaluator-backend/internal/bootstrap"
	"evaluator-backend/internal/extract"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/telemetry"
)

// newClient is swapped in tests.
var newClient = bootstrap.BuildLLMClient

type runOptions struct {
	analysisType string
	file         string
	compare      string
	provider     string
	model        string
	out          string
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "evaluate",
		Short:         "Score passages with the multi-phase evaluation protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(cfg), newSetsCmd(cfg))
	return root
}

func newRunCmd(cfg config.Config) *cobra.Command {
	opts := runOptions{provider: cfg.LLMProvider, model: cfg.LLMModel}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate one file, or compare two",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.analysisType, "type", "t", "", "question set to evaluate against")
	flags.StringVarP(&opts.file, "file", "f", "", "passage file (.txt, .md, .pdf, .docx)")
	flags.StringVar(&opts.compare, "compare", "", "second passage file for a side-by-side comparison")
	flags.StringVar(&opts.provider, "provider", opts.provider, "llm provider (openai, gemini)")
	flags.StringVar(&opts.model, "model", opts.model, "provider model")
	flags.StringVarP(&opts.out, "out", "o", "", "write the JSON result to this path instead of stdout")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSetsCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List the available question sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := bootstrap.BuildRegistry(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range reg.Names() {
				set, err := reg.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s (%d questions)\n", set.Name(), set.Len())
				for i, q := range set.Questions() {
					fmt.Fprintf(w, "  %d. %s\n", i+1, q)
				}
			}
			return nil
		},
	}
}

func runEvaluate(ctx context.Context, stdout io.Writer, cfg config.Config, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(opts.provider))
	cfg.LLMModel = strings.TrimSpace(opts.model)

	reg, err := bootstrap.BuildRegistry(cfg)
	if err != nil {
		return err
	}
	set, err := reg.Get(opts.analysisType)
	if err != nil {
		return err
	}

	passageA, err := readPassage(ctx, opts.file)
	if err != nil {
		return err
	}
	var passageB string
	if opts.compare != "" {
		if passageB, err = readPassage(ctx, opts.compare); err != nil {
			return err
		}
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	engine, err := bootstrap.BuildEngine(client, cfg)
	if err != nil {
		return err
	}

	var result any
	if passageB == "" {
		res, err := engine.Evaluate(ctx, passageA, set, set.Name())
		if err != nil {
			return err
		}
		result = res
	} else {
		res, err := engine.EvaluateDual(ctx, passageA, passageB, set, set.Name())
		if err != nil {
			return err
		}
		result = res
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	payload = append(payload, '\n')
	if opts.out == "" {
		_, err = stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(opts.out, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	telemetry.Info("evaluate.written", map[string]any{"path": opts.out, "bytes": len(payload)})
	return nil
}

func readPassage(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	text, err := extract.Passage(ctx, data, mime.TypeByExtension(filepath.Ext(name)), name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

func main() {
	cfg := config.Load()
	// stdout carries the result; logs go to stderr.
	logCfg := zap.NewDevelopmentConfig()
	if !cfg.Debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	if logger, err := logCfg.Build(); err == nil {
		telemetry.SetLogger(logger)
	}
	defer telemetry.Sync()

	ctx := context.Background()
	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		telemetry.Sync()
		os.Exit(1)
	}
}
