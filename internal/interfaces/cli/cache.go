package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/sdsmatch/internal/infrastructure/cache"
)

// NewCacheCmd creates the result-cache maintenance command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the extraction result cache",
	}

	cmd.AddCommand(newCacheStatsCmd(), newCacheClearCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache backend, entry count and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			store, err := cache.NewStore(cliCtx.Config.Cache, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			return PrintResult(cmd, &cacheStatsView{stats})
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached extraction results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			store, err := cache.NewStore(cliCtx.Config.Cache, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}

			PrintSuccess(cmd, fmt.Sprintf("cache cleared (%s backend)", store.Name()))
			return nil
		},
	}
}

// cacheStatsView adapts cache stats for table and text output.
type cacheStatsView struct {
	*cache.Stats
}

func (v *cacheStatsView) TableHeaders() []string {
	return []string{"Backend", "Entries", "Size (bytes)"}
}

func (v *cacheStatsView) TableRows() [][]string {
	return [][]string{{
		v.Backend,
		fmt.Sprintf("%d", v.Entries),
		fmt.Sprintf("%d", v.SizeBytes),
	}}
}

func (v *cacheStatsView) String() string {
	return fmt.Sprintf("backend=%s entries=%d size=%dB", v.Backend, v.Entries, v.SizeBytes)
}
