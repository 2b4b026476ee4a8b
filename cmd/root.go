package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/meysamhadeli/codesim/code_normalizer"
	"github.com/meysamhadeli/codesim/code_normalizer/contracts"
	"github.com/meysamhadeli/codesim/comparison"
	"github.com/meysamhadeli/codesim/config"
	"github.com/meysamhadeli/codesim/constants/lipgloss"
	"github.com/meysamhadeli/codesim/logger"
	"github.com/meysamhadeli/codesim/manifest"
	"github.com/meysamhadeli/codesim/similarity"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// RootDependencies holds everything a command needs once configuration is loaded
type RootDependencies struct {
	Config       *config.Config
	Cwd          string
	Normalizer   contracts.ICodeNormalizer
	CacheManager *code_normalizer.CacheManager
	Engine       *similarity.Engine
}

var rootCmd = &cobra.Command{
	Use:   "codesim <manifest> <output>",
	Short: "Score pairwise similarity of Python source files.",
	Long: `codesim reads a manifest with two file paths per line, normalizes both files
(comments and formatting dropped, bound names collapsed into one placeholder) and
writes one similarity score per manifest line to the output file. A score of 1.0
means the normalized token sequences are identical.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			return nil
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(lipgloss.Info.Render("codesim version " + config.DefaultConfig.Version))
			return nil
		}

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		count, err := compareManifest(cmd.Context(), rootDependencies, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Wrote %d scores to %s", count, args[1])))
		return nil
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads configuration and builds the normalizer and engine.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	if err := config.LoadEnv(cwd); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, err
	}

	rootDependencies := &RootDependencies{
		Config: cfg,
		Cwd:    cwd,
		Engine: cfg.NewEngine(),
	}

	if cfg.EnableCache {
		cacheManager, err := code_normalizer.NewCacheManager(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		rootDependencies.CacheManager = cacheManager
	}

	rootDependencies.Normalizer = code_normalizer.NewCodeNormalizer(
		code_normalizer.ReplacementMode(cfg.ReplacementMode),
		rootDependencies.CacheManager,
	)

	log.Debug().
		Str("replacement_mode", cfg.ReplacementMode).
		Str("rounding", cfg.Rounding).
		Str("empty_pair_policy", cfg.EmptyPairPolicy).
		Bool("cache", cfg.EnableCache).
		Msg("Configuration loaded")

	return rootDependencies, nil
}

// compareManifest scores every manifest line and writes the result file. No
// output file is written when any pair fails.
func compareManifest(ctx context.Context, rootDependencies *RootDependencies, manifestPath, outputPath string) (int, error) {
	entries, err := manifest.ReadFile(manifestPath)
	if err != nil {
		return 0, err
	}

	var progress comparison.ProgressFunc
	if rootDependencies.Config.Progress && len(entries) > 0 {
		bar, _ := pterm.DefaultProgressbar.
			WithTotal(len(entries)).
			WithTitle("Comparing pairs").
			WithRemoveWhenDone(true).
			Start()
		if bar != nil {
			defer bar.Stop()

			var mutex sync.Mutex
			progress = func(done, total int) {
				mutex.Lock()
				defer mutex.Unlock()
				bar.Increment()
			}
		}
	}

	runner := comparison.NewRunner(rootDependencies.Normalizer, rootDependencies.Engine, rootDependencies.Config.Workers, progress)

	scores, err := runner.Run(ctx, entries)
	if err != nil {
		return 0, err
	}

	if err := manifest.WriteScores(outputPath, scores); err != nil {
		return 0, err
	}

	log.Info().Int("pairs", len(scores)).Str("output", outputPath).Msg("Scores written")
	return len(scores), nil
}

// Execute runs the root command; ctx is handed to every subcommand.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
