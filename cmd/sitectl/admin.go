package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sitecraft/backend/internal/repository"
	"github.com/sitecraft/backend/internal/service"
	"github.com/sitecraft/backend/pkg/auth"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin panel accounts",
	}
	cmd.AddCommand(adminCreateCmd())
	cmd.AddCommand(adminSetPasswordCmd())
	return cmd
}

// readPassword returns flagValue, or the first line of stdin when it is "-"
// or empty. Passwords never come from positional arguments.
func readPassword(flagValue string, stdin io.Reader) (string, error) {
	if flagValue != "" && flagValue != "-" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required (--password or stdin)")
	}
	return pw, nil
}

func newAuthService(cmd *cobra.Command) (service.AuthService, func(), error) {
	cfg, pool, err := openPool(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	svc := service.NewAuthService(repository.NewPgAdminUserRepository(pool), auth.SessionSecretBytes(cfg.Session.Secret), cfg.Session.TTL)
	return svc, pool.Close, nil
}

func adminCreateCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long:  "Create an admin account. The password is read from stdin when --password is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password, os.Stdin)
			if err != nil {
				return err
			}
			svc, closeFn, err := newAuthService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			admin, err := svc.CreateAdmin(cmd.Context(), email, name, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password, or - to read from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func adminSetPasswordCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace an admin account's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password, os.Stdin)
			if err != nil {
				return err
			}
			svc, closeFn, err := newAuthService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.SetPassword(cmd.Context(), email, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password, or - to read from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
