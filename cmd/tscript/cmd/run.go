package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/pkg/tscript"
)

var runCmd = &cobra.Command{
	Use:   "run <file.ts>",
	Short: "Run a TScript program with the tree-walking interpreter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, sources, entry, err := engineFor(cmd, args[0])
		if err != nil {
			return err
		}
		_ = entry
		diags := engine.Run(sources)
		return reportDiagnostics(diags, sources)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// engineFor loads the entry file, its sibling sources and options.
func engineFor(cmd *cobra.Command, entryPath string) (*tscript.Engine, map[string]string, string, error) {
	sources, entry, err := loadSources(entryPath)
	if err != nil {
		return nil, nil, "", err
	}

	opts := tscript.Options{StrictNullChecks: true, Entry: entry, Out: os.Stdout}
	if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
		data, err := os.ReadFile(cfg)
		if err != nil {
			return nil, nil, "", fmt.Errorf("reading config: %w", err)
		}
		opts = tscript.OptionsFromJSON(data)
		opts.Entry = entry
		opts.Out = os.Stdout
	} else if strict, err := cmd.Flags().GetBool("strict"); err == nil {
		opts.StrictNullChecks = strict
	}
	return tscript.NewEngine(opts), sources, entry, nil
}

// loadSources reads the entry file and every .ts sibling so relative
// imports resolve.
func loadSources(entryPath string) (map[string]string, string, error) {
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", entryPath, err)
	}

	entry := moduleName(entryPath)
	sources := map[string]string{entry: string(data)}

	dir := filepath.Dir(entryPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return sources, entry, nil
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".ts") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if p == entryPath {
			continue
		}
		text, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		sources[moduleName(p)] = string(text)
	}
	return sources, entry, nil
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".ts")
}

// reportDiagnostics renders diagnostics with source context and returns an
// error when any are fatal.
func reportDiagnostics(diags *errors.DiagnosticList, sources map[string]string) error {
	if diags.Len() == 0 {
		return nil
	}
	diags.SortByPosition()
	fmt.Fprint(os.Stderr, diags.Format(sources, true))
	if diags.HasErrors() {
		return fmt.Errorf("%d error(s)", len(diags.Errors()))
	}
	return nil
}
