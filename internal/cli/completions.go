package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// outputFormats are the values accepted by --output.
var outputFormats = []string{"text", "yaml"}

func completeFromList(values []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFromList(sslModes, toComplete)
}

// completeOutputFormats provides shell completion for --output.
func completeOutputFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFromList(outputFormats, toComplete)
}

// completeStages provides shell completion for --stage.
func completeStages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(dwhetl.Categories))
	for _, c := range dwhetl.Categories {
		names = append(names, c.String())
	}
	return completeFromList(names, toComplete)
}
