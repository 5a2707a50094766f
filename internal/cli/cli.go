// Package cli implements ffctl, an offline companion to the API server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/gateway/router"
	"github.com/yungbote/founderflow-backend/internal/history"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/prompt"
)

type options struct {
	configPath string
	logLevel   string

	fields   []string
	model    string
	surprise bool
	record   bool
	strategy string
	seed     int64
}

// NewRootCmd builds the command tree. Output goes to the command's
// configured writers so tests can capture it.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "ffctl",
		Short:         "Render, run and inspect FounderFlow prompt templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (json or yaml); defaults to FF_CONFIG_PATH or ./config/config.*")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "error", "log level for pipeline diagnostics")

	root.AddCommand(
		templatesCmd(),
		renderCmd(o),
		generateCmd(o),
		extractCmd(o),
		modelsCmd(o),
	)
	return root
}

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, t := range prompt.Default().List() {
				fmt.Fprintf(w, "%-22s v%d  %s  [%s]\n", t.Name, t.Version, t.Title, strings.Join(t.Keys(), ", "))
			}
			return nil
		},
	}
}

func renderCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Print the instruction a template produces for the given fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, req, err := o.request(args[0])
			if err != nil {
				return err
			}
			p, err := t.Render(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			return nil
		},
	}
	o.fieldFlags(cmd)
	return cmd
}

func generateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <template>",
		Short: "Run one submission through the configured model and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runGenerate(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
	o.fieldFlags(cmd)
	cmd.Flags().StringVar(&o.model, "model", "", "model id; defaults to gateway.default_model")
	cmd.Flags().BoolVar(&o.record, "record", false, "store a successful result in the history database")
	return cmd
}

func extractCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <template> [file]",
		Short: "Extract and check a saved model reply against a template's schema",
		Long:  "Reads the reply from file, or from stdin when file is omitted or \"-\".",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := prompt.Default().Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", prompt.ErrUnknownTemplate, args[0])
			}
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			raw, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read reply: %w", err)
			}
			strategy, err := extract.ParseStrategy(o.strategy)
			if err != nil {
				return err
			}
			res, err := extract.New(strategy).Extract(string(raw), t.Schema)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&o.strategy, "strategy", string(extract.Greedy), "greedy or balanced")
	return cmd
}

func modelsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(o.resolveConfigPath())
			if err != nil {
				return err
			}
			r, err := router.New(cfg.Gateway)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), gateway.New(r, nil).Models())
		},
	}
}

func (o *options) fieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.fields, "field", "f", nil, "field value as key=value; repeatable")
	cmd.Flags().BoolVar(&o.surprise, "surprise", false, "fill empty fields with random suggestions")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "random seed for --surprise; 0 uses the clock")
}

func (o *options) request(name string) (*prompt.Template, prompt.Request, error) {
	t, ok := prompt.Default().Get(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", prompt.ErrUnknownTemplate, name)
	}
	req, err := parseFields(o.fields)
	if err != nil {
		return nil, nil, err
	}
	if o.surprise {
		seed := o.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		req = t.Surprise(rand.New(rand.NewSource(seed)), req)
	}
	return t, req, nil
}

func (o *options) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return os.Getenv("FF_CONFIG_PATH")
}

func (o *options) runGenerate(ctx context.Context, w io.Writer, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, req, err := o.request(name)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFile(o.resolveConfigPath())
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, o.logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	r, err := router.New(cfg.Gateway)
	if err != nil {
		return err
	}
	strategy, err := extract.ParseStrategy(cfg.Extractor.Strategy)
	if err != nil {
		return err
	}
	templates := prompt.Default()
	p := pipeline.New(templates, gateway.New(r, log), extract.New(strategy), pipeline.WithLogger(log))

	sub := pipeline.Submission{Template: name, Request: req, Model: o.model}
	out := p.Run(ctx, sub)
	if !out.Ok() {
		v := pipeline.Describe(out.Err)
		return fmt.Errorf("%s failure: %w", v.Kind, out.Err)
	}

	if o.record {
		if err := recordOutcome(ctx, cfg.History, log, templates, sub, out); err != nil {
			return err
		}
	}
	return writeJSON(w, map[string]any{
		"template":    out.Template,
		"model":       out.Model,
		"duration_ms": out.Duration.Milliseconds(),
		"result":      out.Result,
	})
}

func recordOutcome(ctx context.Context, cfg config.HistoryConfig, log *logger.Logger, templates *prompt.Registry, sub pipeline.Submission, out pipeline.Outcome) error {
	db, err := history.Open(cfg, log)
	if err != nil {
		return err
	}
	defer history.Close(db)
	version := 0
	if t, ok := templates.Get(sub.Template); ok {
		version = t.Version
	}
	_, err = history.NewRecorder(history.NewRepo(db, log), log).Record(ctx, "", sub, out, version)
	return err
}

// parseFields reads repeated key=value flags. Later keys win.
func parseFields(kvs []string) (prompt.Request, error) {
	req := prompt.Request{}
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q, want key=value", kv)
		}
		req[k] = v
	}
	return req, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
