package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/internal/server"
	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		mongoDB   string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

Layout and evaluation requests run through the shared pipeline; finished
layouts persist in MongoDB when --mongo is set, in process memory
otherwise. With --redis the result cache is shared across instances
instead of living on the local disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, mongoURI, mongoDB, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for a shared cache (host:port)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for persistence")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", appName, "MongoDB database name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe builds the cache, store and server and blocks until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, addr, redisAddr, mongoURI, mongoDB string, noCache bool) error {
	var cc cache.Cache
	var err error
	switch {
	case noCache:
		cc = cache.NewNullCache()
	case redisAddr != "":
		cc, err = cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	default:
		cc, err = newCache(false)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	var st store.Store
	if mongoURI != "" {
		st, err = store.NewMongoStore(ctx, mongoURI, mongoDB)
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
	} else {
		st = store.NewMemoryStore()
		printWarning("No --mongo given, layouts persist in memory only")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			c.Logger.Error("close store", "err", err)
		}
	}()

	runner := pipeline.NewRunner(cc, nil, c.Logger)
	defer runner.Close()

	cfg := server.DefaultConfig()
	cfg.Addr = addr

	printInfo("Serving on %s", addr)
	return server.New(runner, st, c.Logger, cfg).Start(ctx)
}
