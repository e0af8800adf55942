package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitecraft/backend/internal/mailer"
)

func mailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Check the mail relay configuration",
	}
	cmd.AddCommand(mailTestCmd())
	return cmd
}

func mailTestCmd() *cobra.Command {
	var to string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test message through the configured relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mc := cfg.MailerConfig()
			if to == "" {
				to = mc.AdminAddress
			}
			m := mailer.New(mc, mailer.WithLogger(slog.Default().With("component", "mailer")))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := m.SendTest(ctx, to); err != nil {
				return fmt.Errorf("test message to %s: %w", to, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "test message sent to %s via %s:%d (%s)\n", to, mc.Host, mc.Port, mc.Encryption)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient (default: the configured admin address)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}
