package main

import (
	"fmt"
	"strings"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/xnotid/xnotid/internal/card"
	"github.com/xnotid/xnotid/internal/dbus"
)

var sendOpts struct {
	appName     string
	icon        string
	urgency     string
	timeout     int32
	replaces    uint32
	transient   bool
	acknowledge bool
	group       string
	actions     []string

	// Card options
	question   string
	choices    []string
	allowOther bool
	permission bool
	allowLabel string
}

var sendCmd = &cobra.Command{
	Use:   "send <summary> [body]",
	Short: "Send a notification",
	Long: `Send a notification to the running daemon.

Plain notifications take a summary and optional body. Interactive cards
are built from the card flags and replace the body.

Examples:
  # Plain notification
  xnotctl send "Build finished" "all tests passed"

  # Critical, never expiring
  xnotctl send --urgency critical --timeout -1 "Disk almost full"

  # Multiple-choice card
  xnotctl send --question "Deploy to?" --choice staging=Staging --choice prod=Production "Deployment"

  # Permission card
  xnotctl send --permission --question "Share screen?" "Screen sharing"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.appName, "app-name", "a", "xnotctl",
		"Application name to report")
	sendCmd.Flags().StringVarP(&sendOpts.icon, "icon", "i", "",
		"Icon name or path")
	sendCmd.Flags().StringVarP(&sendOpts.urgency, "urgency", "u", "normal",
		"Urgency (low, normal, critical)")
	sendCmd.Flags().Int32VarP(&sendOpts.timeout, "timeout", "t", 0,
		"Expiry in milliseconds (0=urgency default, negative=never)")
	sendCmd.Flags().Uint32VarP(&sendOpts.replaces, "replaces", "r", 0,
		"ID of the notification to replace")
	sendCmd.Flags().BoolVar(&sendOpts.transient, "transient", false,
		"Drop instead of archiving when no popup slot is free")
	sendCmd.Flags().BoolVar(&sendOpts.acknowledge, "acknowledge", false,
		"Require a user action to dismiss")
	sendCmd.Flags().StringVarP(&sendOpts.group, "group", "g", "",
		"Group key; notifications sharing it collapse together")
	sendCmd.Flags().StringArrayVar(&sendOpts.actions, "action", nil,
		"Action as key=label (repeatable)")

	sendCmd.Flags().StringVar(&sendOpts.question, "question", "",
		"Card question text (makes the notification a card)")
	sendCmd.Flags().StringArrayVar(&sendOpts.choices, "choice", nil,
		"Multiple-choice option as id=label (repeatable)")
	sendCmd.Flags().BoolVar(&sendOpts.allowOther, "allow-other", false,
		"Allow free-text entry on a multiple-choice card")
	sendCmd.Flags().BoolVar(&sendOpts.permission, "permission", false,
		"Build a permission card instead of multiple-choice")
	sendCmd.Flags().StringVar(&sendOpts.allowLabel, "allow-label", "",
		"Allow-button label for a permission card")
}

func runSend(cmd *cobra.Command, args []string) error {
	summary := args[0]
	var body string
	if len(args) > 1 {
		body = args[1]
	}

	if sendOpts.question != "" {
		encoded, err := buildCardBody()
		if err != nil {
			return err
		}
		body = encoded
	}

	urgency, err := parseUrgency(sendOpts.urgency)
	if err != nil {
		return err
	}

	hints := map[string]godbus.Variant{
		"urgency": godbus.MakeVariant(urgency),
	}
	if sendOpts.transient {
		hints["transient"] = godbus.MakeVariant(true)
	}
	if sendOpts.acknowledge {
		hints["x-acknowledge"] = godbus.MakeVariant(true)
	}
	if sendOpts.group != "" {
		hints["x-group"] = godbus.MakeVariant(sendOpts.group)
	}

	actions, err := parseActions(sendOpts.actions)
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	id, err := client.Notify(&dbus.DBusNotification{
		AppName:       sendOpts.appName,
		ReplacesID:    sendOpts.replaces,
		AppIcon:       sendOpts.icon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: sendOpts.timeout,
	})
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

// buildCardBody encodes the card flags into a card body string.
func buildCardBody() (string, error) {
	if sendOpts.permission {
		c := &card.Card{
			Type:       card.TypePermission,
			Question:   sendOpts.question,
			AllowLabel: sendOpts.allowLabel,
		}
		if c.AllowLabel == "" {
			c.AllowLabel = card.DefaultAllowLabel
		}
		return c.EncodeBody()
	}

	if len(sendOpts.choices) == 0 {
		return "", fmt.Errorf("a multiple-choice card needs at least one --choice")
	}

	choices := make([]card.Choice, 0, len(sendOpts.choices))
	for _, raw := range sendOpts.choices {
		id, label, ok := strings.Cut(raw, "=")
		if !ok || id == "" {
			return "", fmt.Errorf("invalid --choice %q, want id=label", raw)
		}
		choices = append(choices, card.Choice{ID: id, Label: label})
	}

	c := &card.Card{
		Type:       card.TypeMultipleChoice,
		Question:   sendOpts.question,
		Choices:    choices,
		AllowOther: sendOpts.allowOther,
	}
	return c.EncodeBody()
}

// parseUrgency maps an urgency name to its hint byte.
func parseUrgency(s string) (byte, error) {
	switch strings.ToLower(s) {
	case "low":
		return 0, nil
	case "normal":
		return 1, nil
	case "critical":
		return 2, nil
	default:
		return 0, fmt.Errorf("invalid urgency %q (want low, normal or critical)", s)
	}
}

// parseActions converts key=label flags to the wire's alternating pairs.
func parseActions(raw []string) ([]string, error) {
	actions := make([]string, 0, len(raw)*2)
	for _, a := range raw {
		key, label, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --action %q, want key=label", a)
		}
		actions = append(actions, key, label)
	}
	return actions, nil
}
