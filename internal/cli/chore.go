package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/chorewheel/pkg/model"
)

func newChoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chore",
		Short: "Manage chores and record turns",
	}
	cmd.AddCommand(
		newChoreCreateCmd(),
		newChoreListCmd(),
		newChoreShowCmd(),
		newChoreDoneCmd(),
		newChoreWeightCmd(),
		newChoreAvailabilityCmd("away", "Skip your turns until you are back", false),
		newChoreAvailabilityCmd("back", "Put yourself back into the rotation", true),
	)
	return cmd
}

func newChoreCreateCmd() *cobra.Command {
	var (
		interval int
		start    string
	)
	cmd := &cobra.Command{
		Use:   "create <space_id> <name>",
		Short: "Create a chore shared by the members of a space",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.CreateChore(ChoreInput{
				SpaceID:   args[0],
				Name:      args[1],
				Interval:  interval,
				StartDate: start,
			})
			if err != nil {
				return fmt.Errorf("create chore: %w", err)
			}
			printf(cmd, "Chore created: %s (%s, every %d days)\n", c.ID, c.Name, c.Interval)
			printNext(cmd, c)
			return nil
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "Days between turns (default 7)")
	cmd.Flags().StringVar(&start, "start", "", "First due date, YYYY-MM-DD (default today)")
	return cmd
}

func newChoreListCmd() *cobra.Command {
	var spaceID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your chores",
		RunE: func(cmd *cobra.Command, args []string) error {
			chores, pg, err := client.ListChores(spaceID)
			if err != nil {
				return fmt.Errorf("list chores: %w", err)
			}
			if len(chores) == 0 {
				printf(cmd, "No chores found.\n")
				return nil
			}

			printf(cmd, "%-40s  %-20s  %-8s  %-40s  %s\n", "ID", "NAME", "EVERY", "NEXT", "DUE")
			printf(cmd, "%-40s  %-20s  %-8s  %-40s  %s\n", "--", "----", "-----", "----", "---")
			for _, c := range chores {
				printf(cmd, "%-40s  %-20s  %-8s  %-40s  %s\n",
					c.ID, c.Name, strconv.Itoa(c.Interval)+"d", orDash(c.NextUserID), dateOrDash(c.NextDate))
			}
			printMore(cmd, pg, len(chores))
			return nil
		},
	}
	cmd.Flags().StringVar(&spaceID, "space", "", "Only chores in this space")
	return cmd
}

func newChoreShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chore_id>",
		Short: "Show a chore and its participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.GetChore(args[0])
			if err != nil {
				return fmt.Errorf("get chore: %w", err)
			}
			parts, err := client.ListParticipants(args[0])
			if err != nil {
				return fmt.Errorf("list participants: %w", err)
			}

			printf(cmd, "Chore: %s\n", c.ID)
			printf(cmd, "  Name:     %s\n", c.Name)
			printf(cmd, "  Every:    %d days\n", c.Interval)
			printf(cmd, "  Last:     %s on %s\n", orDash(c.LastUserID), dateOrDash(c.LastDate))
			printNext(cmd, c)
			printf(cmd, "  Participants:\n")
			for _, p := range parts {
				printf(cmd, "    - %s: %s turns, vwork %.2f, weight %.2f, %s\n",
					p.UserID, humanize.Comma(int64(p.Work)), p.VWork, p.Weight, availabilityLabel(p.Available))
			}
			return nil
		},
	}
}

func newChoreDoneCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "done <chore_id>",
		Short: "Record that you did a turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := client.CompleteChore(args[0], date)
			if err != nil {
				return fmt.Errorf("complete chore: %w", err)
			}
			printf(cmd, "Recorded %s for %s on %s\n", comp.ChoreID, comp.UserID, comp.CompletedOn.Format(model.DateFormat))

			c, err := client.GetChore(args[0])
			if err != nil {
				return fmt.Errorf("get chore: %w", err)
			}
			printNext(cmd, c)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day the turn was done, YYYY-MM-DD (default today)")
	return cmd
}

func newChoreWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <chore_id> <user_id> <weight>",
		Short: "Set how much a turn counts for a participant",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid weight %q: %w", args[2], err)
			}
			p, err := client.SetWeight(args[0], args[1], w)
			if err != nil {
				return fmt.Errorf("set weight: %w", err)
			}
			printf(cmd, "%s now has weight %.2f on %s\n", p.UserID, p.Weight, p.ChoreID)
			return nil
		},
	}
}

func newChoreAvailabilityCmd(use, short string, available bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <chore_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client.SetChoreAvailability(args[0], available)
			if err != nil {
				return fmt.Errorf("set availability: %w", err)
			}
			printf(cmd, "%s is %s for %s\n", p.UserID, availabilityLabel(p.Available), p.ChoreID)
			return nil
		},
	}
}

func printNext(cmd *cobra.Command, c *model.Chore) {
	if c.NextUserID == "" {
		printf(cmd, "  Next:     nobody available\n")
		return
	}
	printf(cmd, "  Next:     %s on %s\n", c.NextUserID, dateOrDash(c.NextDate))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(model.DateFormat)
}
