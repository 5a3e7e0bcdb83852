package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackbom/pkg/cache"
	"github.com/matzehuels/stackbom/pkg/errors"
)

// Cache backends selectable with --cache.
const (
	cacheNone  = "none"
	cacheFile  = "file"
	cacheRedis = "redis"
)

// newCache opens the cache backend named by kind.
func newCache(ctx context.Context, kind, redisAddr string) (cache.Cache, error) {
	switch kind {
	case "", cacheNone:
		return cache.NewNullCache(), nil
	case cacheFile:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case cacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: redisAddr, Prefix: appName + ":"})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want none, file or redis)", kind)
	}
}

// cacheCommand groups the file cache maintenance subcommands.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the file lookup cache",
	}
	cmd.AddCommand(
		c.cacheSweepCommand("clear", "Remove every cached lookup", (*cache.FileCache).Clear),
		c.cacheSweepCommand("prune", "Remove expired cached lookups", (*cache.FileCache).Prune),
		c.cachePathCommand(),
	)
	return cmd
}

// cacheSweepCommand runs one FileCache sweep against the default directory.
func (c *CLI) cacheSweepCommand(use, short string, sweep func(*cache.FileCache) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			n, err := sweep(fc)
			if err != nil {
				return fmt.Errorf("%s cache: %w", use, err)
			}
			loggerFromContext(cmd.Context()).Debug("cache sweep", "op", use, "removed", n, "dir", fc.Dir())
			if n == 0 {
				printInfo("Nothing to remove")
				return nil
			}
			printSuccess("Removed %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func openFileCache() (*cache.FileCache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return c.(*cache.FileCache), nil
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.out, dir)
			return nil
		},
	}
}
