package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// dndCmd represents the dnd command group.
var dndCmd = &cobra.Command{
	Use:   "dnd",
	Short: "Manage Do Not Disturb mode",
	Long: `Manage Do Not Disturb (DnD) mode for xnotid.

When DnD is enabled, new notifications go straight to the notification
center instead of popping up. Critical notifications still pop up when
the critical bypass is configured.`,
	RunE: dndStatusRun,
}

var dndOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable Do Not Disturb mode",
	RunE:  func(cmd *cobra.Command, args []string) error { return dndSet(true) },
}

var dndOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable Do Not Disturb mode",
	RunE:  func(cmd *cobra.Command, args []string) error { return dndSet(false) },
}

var dndToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle Do Not Disturb mode",
	RunE:  dndToggleRun,
}

var dndStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Do Not Disturb status",
	RunE:  dndStatusRun,
}

func init() {
	dndCmd.AddCommand(dndOnCmd)
	dndCmd.AddCommand(dndOffCmd)
	dndCmd.AddCommand(dndToggleCmd)
	dndCmd.AddCommand(dndStatusCmd)
	rootCmd.AddCommand(dndCmd)
}

// dndSet toggles only when the current state differs from the target.
func dndSet(enabled bool) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	st, err := client.Status()
	if err != nil {
		return err
	}

	if st.DnD != enabled {
		if _, err := client.ToggleDnD(); err != nil {
			return err
		}
	}

	printDnD(enabled)
	return nil
}

func dndToggleRun(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	enabled, err := client.ToggleDnD()
	if err != nil {
		return err
	}

	printDnD(enabled)
	return nil
}

func dndStatusRun(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	st, err := client.Status()
	if err != nil {
		return err
	}

	printDnD(st.DnD)
	return nil
}

func printDnD(enabled bool) {
	if enabled {
		fmt.Println("Do Not Disturb: enabled")
	} else {
		fmt.Println("Do Not Disturb: disabled")
	}
}
