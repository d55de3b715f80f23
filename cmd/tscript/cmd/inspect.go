package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-tscript/internal/bytecode"
	"github.com/cwbudde/go-tscript/internal/lexer"
	"github.com/cwbudde/go-tscript/internal/parser"
)

var lexCmd = &cobra.Command{
	Use:   "lex <file.ts>",
	Short: "Print the token stream of a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		l := lexer.New(string(data))
		for {
			tok := l.NextToken()
			fmt.Println(tok.String())
			if tok.Type == lexer.EOF {
				break
			}
		}
		for _, lerr := range l.Errors() {
			fmt.Fprintf(os.Stderr, "lex error at %s: %s\n", lerr.Pos, lerr.Message)
		}
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <file.ts>",
	Short: "Parse a source file and print the AST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		p := parser.New(lexer.New(string(data)))
		mod := p.ParseModule(moduleName(args[0]))
		for _, stmt := range mod.Statements {
			fmt.Println(stmt.String())
		}
		if errs := p.Errors(); len(errs) > 0 {
			for _, perr := range errs {
				fmt.Fprintln(os.Stderr, perr.Error())
			}
			return fmt.Errorf("%d parse error(s)", len(errs))
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file.ts>",
	Short: "Type-check a program without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, sources, _, err := engineFor(cmd, args[0])
		if err != nil {
			return err
		}
		diags := engine.Check(sources)
		if err := reportDiagnostics(diags, sources); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.ts>",
	Short: "Compile a program and print its bytecode listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, sources, _, err := engineFor(cmd, args[0])
		if err != nil {
			return err
		}
		mods, diags := engine.CompileModules(sources)
		if err := reportDiagnostics(diags, sources); err != nil {
			return err
		}
		for _, m := range mods {
			fmt.Println(bytecode.Disassemble(m))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(disasmCmd)
}
