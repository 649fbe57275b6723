package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookmatch/internal/searchcache"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Search cache utilities",
	}

	cacheCmd.AddCommand(newCacheInfoCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))

	return cacheCmd
}

func openCache(cmdCtx *commandContext) (*searchcache.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.SearchCache.Enabled {
		return nil, nil
	}
	return searchcache.Open(cfg.SearchCache.Path, cfg.CacheTTL())
}

func newCacheInfoCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmdCtx)
			if err != nil {
				return err
			}
			defer cache.Close()

			out := cmd.OutOrStdout()
			if cache == nil {
				fmt.Fprintln(out, "Search cache is disabled")
				return nil
			}
			count, err := cache.Count(cmd.Context())
			if err != nil {
				return err
			}
			cfg, _ := cmdCtx.ensureConfig()
			fmt.Fprintln(out, renderTable(
				[]tableColumn{{name: "Property"}, {name: "Value", right: true}},
				[][]string{
					{"path", cache.Path()},
					{"entries", strconv.FormatInt(count, 10)},
					{"ttl hours", strconv.Itoa(cfg.SearchCache.TTLHours)},
				},
			))
			return nil
		},
	}
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached search result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmdCtx)
			if err != nil {
				return err
			}
			defer cache.Close()

			if cache == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Search cache is disabled")
				return nil
			}
			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached searches\n", removed)
			return nil
		},
	}
}
