package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// centerCmd represents the center command group.
var centerCmd = &cobra.Command{
	Use:   "center",
	Short: "Manage the notification center",
	Long: `Manage the daemon's notification center.

The center holds notifications that could not be shown as popups
(all slots occupied, or Do Not Disturb active).`,
	RunE: runCenterList,
}

var centerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notification-center entries",
	RunE:  runCenterList,
}

var centerToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle notification-center visibility",
	RunE:  runCenterToggle,
}

var centerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all notification-center entries",
	RunE:  runCenterClear,
}

var centerAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge a single notification-center entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runCenterAck,
}

func init() {
	centerCmd.AddCommand(centerListCmd)
	centerCmd.AddCommand(centerToggleCmd)
	centerCmd.AddCommand(centerClearCmd)
	centerCmd.AddCommand(centerAckCmd)
	rootCmd.AddCommand(centerCmd)
}

func runCenterList(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	entries, err := client.ListCenter()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("notification center is empty")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%d | %s | %s | %s | %s",
			e.ID, humanize.Time(e.ArchivedAt), e.Urgency.String(), e.AppName, e.Summary)
		if e.GroupSize > 1 {
			line += fmt.Sprintf(" [%s, %d together]", e.Group, e.GroupSize)
		}
		fmt.Println(line)
	}
	return nil
}

func runCenterToggle(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	visible, err := client.ToggleCenter()
	if err != nil {
		return err
	}

	if visible {
		fmt.Println("notification center: visible")
	} else {
		fmt.Println("notification center: hidden")
	}
	return nil
}

func runCenterClear(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.ClearCenter()
}

func runCenterAck(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.Acknowledge(id)
}
