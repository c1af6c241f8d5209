package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go-pos-server/internal/models"
	"go-pos-server/internal/settings"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var username, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account (use this to recover a locked-out store)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			acc, err := a.accounts.Register(cmd.Context(), username, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", acc.Username, acc.Role, acc.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "login name")
	create.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	create.Flags().StringVar(&role, "role", models.RoleAdmin, "admin or cashier")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore a full store backup",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			b, err := a.settings.ExportBackup(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return fmt.Errorf("encode backup: %w", err)
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d users, %d products, %d sales, %d images\n",
				out, len(b.Users), len(b.Products), len(b.Sales), len(b.Images))
			return nil
		},
	}
	export.Flags().StringVar(&out, "out", "pos-backup.json", "output file")

	var in string
	restore := &cobra.Command{
		Use:   "import",
		Short: "Replace all store data with a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			var b settings.Backup
			if err := json.Unmarshal(data, &b); err != nil {
				return fmt.Errorf("decode backup: %w", err)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			sum, err := a.settings.ImportBackup(cmd.Context(), &b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d users, %d products, %d sales, %d images\n",
				sum.Users, sum.Products, sum.Sales, sum.Images)
			return nil
		},
	}
	restore.Flags().StringVar(&in, "in", "", "backup file to restore")
	_ = restore.MarkFlagRequired("in")

	cmd.AddCommand(export, restore)
	return cmd
}
