package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmorrell/Plant-Selection/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the elink result cache",
	Long: `Cache reports how many seed lookups are stored in the on-disk elink cache.
With --clear it removes all entries, forcing the next run to re-query PubMed.`,
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().String("cache-dir", "cache", "directory for the elink result cache")
	cacheCmd.Flags().Bool("clear", false, "remove all cached lookups")

	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("cache-dir")

	store, err := cache.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
		return nil
	}

	n, err := store.Len()
	if err != nil {
		return err
	}
	fmt.Printf("%d cached seed lookups in %s\n", n, dir)
	return nil
}
