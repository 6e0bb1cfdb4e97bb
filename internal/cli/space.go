package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSpaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "space",
		Short: "Manage spaces and their members",
	}
	cmd.AddCommand(
		newSpaceCreateCmd(),
		newSpaceListCmd(),
		newSpaceRenameCmd(),
		newSpaceInviteCmd(),
		newSpaceAvailabilityCmd("away", "Mark yourself away in a space and its sub-spaces", false),
		newSpaceAvailabilityCmd("back", "Mark yourself back in a space and its sub-spaces", true),
	)
	return cmd
}

func newSpaceCreateCmd() *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := client.CreateSpace(args[0], parent)
			if err != nil {
				return fmt.Errorf("create space: %w", err)
			}
			printf(cmd, "Space created: %s (%s, %d members)\n", sp.ID, sp.FullName, len(sp.Members))
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent space ID")
	return cmd
}

func newSpaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your spaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			spaces, pg, err := client.ListSpaces()
			if err != nil {
				return fmt.Errorf("list spaces: %w", err)
			}
			if len(spaces) == 0 {
				printf(cmd, "No spaces found.\n")
				return nil
			}

			printf(cmd, "%-40s  %s\n", "ID", "NAME")
			printf(cmd, "%-40s  %s\n", "--", "----")
			for _, sp := range spaces {
				printf(cmd, "%-40s  %s\n", sp.ID, sp.FullName)
			}
			printMore(cmd, pg, len(spaces))
			return nil
		},
	}
}

func newSpaceRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <space_id> <name>",
		Short: "Rename a space; sub-space names follow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := client.UpdateSpace(args[0], &args[1], nil)
			if err != nil {
				return fmt.Errorf("rename space: %w", err)
			}
			printf(cmd, "Space %s is now %s\n", sp.ID, sp.FullName)
			return nil
		},
	}
}

func newSpaceInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <space_id> <email>",
		Short: "Ask a user to join a space",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mr, err := client.Invite(args[0], args[1])
			if err != nil {
				return fmt.Errorf("invite: %w", err)
			}
			printf(cmd, "Request sent: %s (%s invited to %s)\n", mr.ID, args[1], mr.SpaceID)
			return nil
		},
	}
}

func newSpaceAvailabilityCmd(use, short string, available bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <space_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.SetSpaceAvailability(args[0], available); err != nil {
				return fmt.Errorf("set availability: %w", err)
			}
			printf(cmd, "You are %s in %s\n", availabilityLabel(available), args[0])
			return nil
		},
	}
}

func availabilityLabel(available bool) string {
	if available {
		return "available"
	}
	return "away"
}
