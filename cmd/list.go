package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	parserPkg "github.com/depscout/depscout/infrastructure/parser"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the supported ecosystems and their manifest files",
	Long: `List every manifest parser the scanner ships with, together with the
file patterns it discovers manifests by.`,
	Run: runList,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) {
	registry := parserPkg.DefaultRegistry()
	fmt.Println("Supported ecosystems:")
	for _, p := range registry.All() {
		fmt.Printf("  %-10s %s\n", p.Name(), strings.Join(p.Patterns(), ", "))
	}
}
