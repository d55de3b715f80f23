package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tscript",
	Short: "TScript compiler and interpreter",
	Long: `go-tscript is a Go implementation of TScript, a statically typed
superset of JavaScript.

It provides:
  - A structural type checker with generics, unions, mapped types and
    control-flow narrowing
  - A tree-walking interpreter with a cooperative async scheduler
  - A bytecode compiler and virtual machine producing portable modules

Both execution strategies observe identical semantics for the programs
they share.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().Bool("strict", true, "enable strict null checks")
	rootCmd.PersistentFlags().String("config", "", "path to a tsconfig-style JSON options file")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
