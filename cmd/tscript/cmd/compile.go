package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-tscript/pkg/tscript"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile <file.ts>",
	Short: "Compile a TScript program to a bytecode module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, sources, entry, err := engineFor(cmd, args[0])
		if err != nil {
			return err
		}

		encoded, diags := engine.Compile(sources)
		if err := reportDiagnostics(diags, sources); err != nil {
			return err
		}

		out := compileOutput
		if out == "" {
			out = strings.TrimSuffix(args[0], ".ts") + ".tsbc"
		}
		// Modules concatenate in initialization order with a length prefix
		// per entry so the loader can split them back apart.
		var blob []byte
		for _, m := range encoded {
			blob = append(blob, lengthPrefix(len(m))...)
			blob = append(blob, m...)
		}
		if err := os.WriteFile(out, blob, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("compiled %s (%d modules, entry %s) -> %s\n", args[0], len(encoded), entry, out)
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file")
	rootCmd.AddCommand(compileCmd)
}

func lengthPrefix(n int) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

func splitModules(blob []byte) ([][]byte, error) {
	var out [][]byte
	for len(blob) > 0 {
		if len(blob) < 4 {
			return nil, fmt.Errorf("truncated module archive")
		}
		n := int(blob[0]) | int(blob[1])<<8 | int(blob[2])<<16 | int(blob[3])<<24
		blob = blob[4:]
		if n < 0 || n > len(blob) {
			return nil, fmt.Errorf("corrupt module archive")
		}
		out = append(out, blob[:n])
		blob = blob[n:]
	}
	return out, nil
}

// engineForCompiled builds an engine for bytecode execution (no sources).
func engineForCompiled(cmd *cobra.Command) (*tscript.Engine, map[string]string, string, error) {
	opts := tscript.Options{StrictNullChecks: true, Out: os.Stdout}
	if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
		data, err := os.ReadFile(cfg)
		if err != nil {
			return nil, nil, "", fmt.Errorf("reading config: %w", err)
		}
		opts = tscript.OptionsFromJSON(data)
		opts.Out = os.Stdout
	}
	return tscript.NewEngine(opts), nil, "", nil
}

var execCmd = &cobra.Command{
	Use:   "exec <file.tsbc>",
	Short: "Execute a compiled bytecode module on the VM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blob, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		encoded, err := splitModules(blob)
		if err != nil {
			return err
		}

		engine, _, _, err := engineForCompiled(cmd)
		if err != nil {
			return err
		}
		diags := engine.RunCompiled(encoded)
		return reportDiagnostics(diags, nil)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
