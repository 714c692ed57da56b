package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/chatsim"
	"github.com/aretw0/chatsim/internal/presentation/tui"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Opens the onboarding channel in the terminal. Messages appear as the
assistant reveals them; buttons are numbered and pressed with /<n>.
Type /help for the full command list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// Keep the chat readable unless asked otherwise.
		if !cmd.Flags().Changed("log-level") && cfg.Log.Level == "info" {
			cfg.Log.Level = "warn"
		}
		logger, err := newLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}

		flow, _ := cmd.Flags().GetString("flow")
		connected, _ := cmd.Flags().GetStringSlice("connected")
		style, _ := cmd.Flags().GetString("style")
		plain, _ := cmd.Flags().GetBool("plain")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		simOpts, _, err := baseOptions(cfg, logger)
		if err != nil {
			return err
		}
		sim := chatsim.New(simOpts...)
		defer sim.Close(context.Background())

		params := domain.EntryParams{Mode: domain.ParseEntryMode(flow), JustConnected: connected}
		conv, err := sim.Start(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to start conversation: %w", err)
		}
		updates, unsubscribe, err := sim.Sessions().Subscribe(conv.ID())
		if err != nil {
			return err
		}
		defer unsubscribe()

		out := cmd.OutOrStdout()
		opts := []runner.Option{
			runner.WithInput(cmd.InOrStdin()),
			runner.WithOutput(out),
			runner.WithLogger(logger),
			runner.WithMaxInputSize(cfg.Input.MaxSize),
		}
		if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(out, string(params.Mode))
			opts = append(opts, runner.WithRenderer(tui.NewRendererWithStyle(style, tui.DefaultWordWrap)))
		}

		err = runner.NewRunner(opts...).Run(ctx, conv, updates)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("flow", "", "Entry flow: standard or onboarding")
	chatCmd.Flags().StringSlice("connected", nil, "Integrations reported as just connected")
	chatCmd.Flags().String("style", "", "glamour style (dark, light, notty); empty auto-detects")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
