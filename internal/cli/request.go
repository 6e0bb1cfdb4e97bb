package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"requests"},
		Short:   "Answer invitations to spaces",
	}
	cmd.AddCommand(
		newRequestListCmd(),
		newRequestRespondCmd("accept", "Join the space you were invited to", true),
		newRequestRespondCmd("decline", "Turn down an invitation", false),
	)
	return cmd
}

func newRequestListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List invitations you sent or received",
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := client.ListRequests()
			if err != nil {
				return fmt.Errorf("list requests: %w", err)
			}
			if len(reqs) == 0 {
				printf(cmd, "No requests.\n")
				return nil
			}

			printf(cmd, "%-40s  %-40s  %-40s  %-9s  %s\n", "ID", "SPACE", "TO", "STATUS", "SENT")
			printf(cmd, "%-40s  %-40s  %-40s  %-9s  %s\n", "--", "-----", "--", "------", "----")
			for _, r := range reqs {
				printf(cmd, "%-40s  %-40s  %-40s  %-9s  %s\n",
					r.ID, r.SpaceID, r.ToUserID, r.Status, humanize.Time(r.CreatedAt))
			}
			return nil
		},
	}
}

func newRequestRespondCmd(use, short string, accept bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mr, err := client.RespondRequest(args[0], accept)
			if err != nil {
				return fmt.Errorf("%s request: %w", use, err)
			}
			printf(cmd, "Request %s %s (space %s)\n", mr.ID, mr.Status, mr.SpaceID)
			return nil
		},
	}
}
