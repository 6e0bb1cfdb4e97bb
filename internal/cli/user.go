package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/chorewheel/pkg/model"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage your account and list users",
	}
	cmd.AddCommand(newUserRegisterCmd(), newUserListCmd(), newUserWhoamiCmd(), newUserPasswordCmd())
	return cmd
}

func newUserRegisterCmd() *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:     "register <email>",
		Aliases: []string{"create"},
		Short:   "Create an account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			u, err := client.Register(args[0], name, password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			printf(cmd, "User created: %s (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newUserWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := client.Me()
			if err != nil {
				return fmt.Errorf("whoami: %w", err)
			}
			printf(cmd, "%s  %s  %s\n", u.ID, u.Email, u.DisplayName())
			return nil
		},
	}
}

func newUserPasswordCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = prompt(cmd, "New password: "); err != nil {
					return err
				}
			}
			if _, err := client.UpdateMe(nil, &password); err != nil {
				return fmt.Errorf("change password: %w", err)
			}
			printf(cmd, "Password changed.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, pg, err := client.ListUsers(100)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			if len(users) == 0 {
				printf(cmd, "No users found.\n")
				return nil
			}

			printf(cmd, "%-40s  %-30s  %-20s  %s\n", "ID", "EMAIL", "NAME", "JOINED")
			printf(cmd, "%-40s  %-30s  %-20s  %s\n", "--", "-----", "----", "------")
			for _, u := range users {
				printf(cmd, "%-40s  %-30s  %-20s  %s\n", u.ID, u.Email, u.DisplayName(), humanize.Time(u.CreatedAt))
			}
			printMore(cmd, pg, len(users))
			return nil
		},
	}
}

func printMore(cmd *cobra.Command, pg *model.Pagination, shown int) {
	if pg != nil && pg.HasMore {
		printf(cmd, "\n(%d of %d shown)\n", shown, pg.Total)
	}
}
