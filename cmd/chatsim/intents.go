package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	redisAdapter "github.com/aretw0/chatsim/pkg/adapters/redis"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/spf13/cobra"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List the newest navigation intents on the Redis stream",
	Long: `Reads the intent stream that "chatsim serve" publishes to, newest first.
Requires redis.addr (or CHATSIM_REDIS_ADDR) to be set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cfg.Redis.Enabled() {
			return errors.New("redis.addr is not configured")
		}
		if _, err := newLogger(cfg, os.Stderr); err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt64("count")

		pub := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithStream(cfg.Redis.Stream),
		)
		defer pub.Close()
		return printIntents(cmd.Context(), cmd.OutOrStdout(), pub, n)
	},
}

type intentReader interface {
	Recent(ctx context.Context, n int64) ([]domain.Intent, error)
}

func printIntents(ctx context.Context, w io.Writer, src intentReader, n int64) error {
	intents, err := src.Recent(ctx, n)
	if err != nil {
		return err
	}
	if len(intents) == 0 {
		fmt.Fprintln(w, "no intents published yet")
		return nil
	}
	for _, in := range intents {
		fmt.Fprintf(w, "%-10s %s\n", in.Kind, in.URL())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(intentsCmd)
	intentsCmd.Flags().Int64P("count", "n", 20, "Number of intents to show")
}
