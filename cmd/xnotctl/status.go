package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  `Show the running daemon's counters, flags and server information.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	info, err := client.ServerInformation()
	if err != nil {
		return err
	}

	st, err := client.Status()
	if err != nil {
		return err
	}

	caps, err := client.Capabilities()
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (spec %s)\n", info.Name, info.Version, info.SpecVersion)
	fmt.Printf("  visible popups:  %d\n", st.Visible)
	fmt.Printf("  center entries:  %d\n", st.Archived)
	fmt.Printf("  do not disturb:  %t\n", st.DnD)
	fmt.Printf("  center visible:  %t\n", st.CenterVisible)
	fmt.Printf("  capabilities:    %s\n", strings.Join(caps, ", "))
	return nil
}
