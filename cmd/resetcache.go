package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/meysamhadeli/codesim/code_normalizer"
	"github.com/meysamhadeli/codesim/constants/lipgloss"
	"github.com/meysamhadeli/codesim/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the token cache",
	Long: `The 'reset-cache' command removes all cached token sequences from the cache
directory ('.cache' in the working directory unless cache_dir is set).
Use this command to reclaim disk space or when experiencing cache-related issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Parse flags
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		return handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	// Define command-specific flags
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	// Add the reset-cache command to the root command
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) error {
	rootDependencies, err := handleRootCommand(cmd)
	if err != nil {
		return err
	}

	// The cache is opened even when enable_cache is off so stale entries can be removed
	cacheManager := rootDependencies.CacheManager
	if cacheManager == nil {
		cacheManager, err = code_normalizer.NewCacheManager(rootDependencies.Config.CacheDir)
		if err != nil {
			return err
		}
	}
	normalizer := code_normalizer.NewCodeNormalizer(code_normalizer.ReplacementMode(rootDependencies.Config.ReplacementMode), cacheManager)

	// Show cache statistics if requested
	if showStats {
		cacheStats, err := normalizer.GetCacheStats()
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
			return nil
		}

		lines := []string{lipgloss.Info.Render("Cache Statistics")}
		if dir, ok := cacheStats["cache_dir"].(string); ok {
			lines = append(lines, fmt.Sprintf("Cache Directory: %s", dir))
		}
		if files, ok := cacheStats["cache_files"].(int); ok {
			lines = append(lines, fmt.Sprintf("Cached Files: %d", files))
		}
		if size, ok := cacheStats["total_size_mb"].(float64); ok {
			lines = append(lines, fmt.Sprintf("Total Size: %.2f MB", size))
		}
		if !rootDependencies.Config.EnableCache {
			lines = append(lines, lipgloss.Gray.Render("Caching is disabled for comparisons (enable_cache=false)"))
		}
		fmt.Println(lipgloss.BoxStyle.Render(strings.Join(lines, "\n")))

		// Only show stats, skip the actual reset
		return nil
	}

	// Confirm reset (if not forced)
	if !force {
		confirmed, err := utils.ConfirmPromptWithContext(cmd.Context(), os.Stdout, bufio.NewReader(os.Stdin), "Are you sure you want to reset the token cache?")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return nil
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting token cache...")

	deleted, err := normalizer.ClearCache()
	if spinnerInstance != nil {
		spinnerInstance.Stop()
	}
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("error resetting cache: %w", err)
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Token cache has been reset (%d entries removed)", deleted)))
	return nil
}
