package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meysamhadeli/codesim/code_normalizer"
	"github.com/meysamhadeli/codesim/code_normalizer/contracts"
	"github.com/meysamhadeli/codesim/utils"
	"github.com/spf13/cobra"
)

// normalizeCmd: codesim normalize <file>
var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Show the normalized form of a Python file.",
	Long: `The 'normalize' subcommand prints the canonical source that is compared:
comments removed, layout normalized and bound names replaced by the placeholder.
With --tokens it prints the token sequence instead, one token per line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, _ := cmd.Flags().GetBool("tokens")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		return handleNormalizeCommand(cmd.Context(), cmd.OutOrStdout(), rootDependencies.Normalizer, args[0], tokens, rootDependencies.Config.Theme)
	},
}

func init() {
	normalizeCmd.Flags().BoolP("tokens", "t", false, "Print the token sequence, one token per line")

	rootCmd.AddCommand(normalizeCmd)
}

func handleNormalizeCommand(ctx context.Context, out io.Writer, normalizer contracts.ICodeNormalizer, path string, tokens bool, theme string) error {
	if tokens {
		sequence, err := normalizer.NormalizeFile(ctx, path)
		if err != nil {
			return err
		}
		for _, token := range sequence {
			fmt.Fprintln(out, token)
		}
		return nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return &code_normalizer.FileError{Path: path, Err: err}
	}

	canonical, err := normalizer.Canonical(ctx, source)
	if err != nil {
		var parseErr *code_normalizer.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return err
	}

	if err := utils.HighlightLinesWithContext(ctx, out, canonical, theme); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}
