package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a notification by ID",
	Long: `Ask the daemon to close a notification.

Closing an unknown or already-closed ID succeeds silently.`,
	Args: cobra.ExactArgs(1),
	RunE: runClose,
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Dismiss a visible notification as a user action",
	Args:  cobra.ExactArgs(1),
	RunE:  runDismiss,
}

var actionCmd = &cobra.Command{
	Use:   "action <id> <key>",
	Short: "Invoke an action on a notification",
	Long: `Invoke an action by its key. For a permission card, the key is "allow";
for a multiple-choice card, the key is the choice id.`,
	Args: cobra.ExactArgs(2),
	RunE: runAction,
}

func init() {
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(actionCmd)
}

func parseID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", arg)
	}
	return uint32(id), nil
}

func runClose(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.CloseNotification(id)
}

func runDismiss(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.Dismiss(id)
}

func runAction(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.InvokeAction(id, args[1])
}
