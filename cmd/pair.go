package cmd

import (
	"fmt"

	"github.com/meysamhadeli/codesim/comparison"
	"github.com/meysamhadeli/codesim/similarity"
	"github.com/spf13/cobra"
)

// pairCmd: codesim pair <a> <b>
var pairCmd = &cobra.Command{
	Use:   "pair <file_a> <file_b>",
	Short: "Print the similarity score of two Python files.",
	Long: `The 'pair' subcommand compares two files directly, without a manifest, and
prints their similarity score to standard output.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		runner := comparison.NewRunner(rootDependencies.Normalizer, rootDependencies.Engine, 1, nil)
		score, err := runner.Compare(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), similarity.FormatScore(score))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pairCmd)
}
