package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/innervoice/internal/config"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message to your reflection",
	Long: `Send a message to your reflection and print the reply.

Examples:
  innervoice chat --profile 9f3c... "I had a rough day"
  innervoice chat --profile 9f3c...           (interactive; reads lines from stdin)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, _ := cmd.Flags().GetString("profile")
		if profileID == "" {
			return fmt.Errorf("--profile is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			return sendChat(cmd, client, profileID, strings.Join(args, " "))
		}

		// Interactive mode: one exchange per line until EOF.
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Fprint(os.Stderr, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := sendChat(cmd, client, profileID, line); err != nil {
				printError("%v", err)
			}
		}
		return scanner.Err()
	},
}

func sendChat(cmd *cobra.Command, client *apiClient, profileID, message string) error {
	resp, err := client.post(cmd.Context(), "/api/ai-reflection/chat", map[string]any{
		"profileId": profileID,
		"message":   message,
	})
	if err != nil {
		return err
	}

	var result struct {
		Success      bool     `json:"success"`
		Response     string   `json:"response"`
		ProfileName  string   `json:"profileName"`
		Mood         string   `json:"mood"`
		Suggestions  []string `json:"suggestions"`
		NeedsSupport bool     `json:"needsSupport"`
		Error        string   `json:"error"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Error)
	}

	printReply(result.ProfileName, result.Response)
	if result.NeedsSupport {
		printWarning("support resources were included in this reply")
	}
	return nil
}

func init() {
	chatCmd.Flags().String("profile", "", "profile identifier")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage reflection profiles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a reflection profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		traits, _ := cmd.Flags().GetString("traits")
		style, _ := cmd.Flags().GetString("style")
		interests, _ := cmd.Flags().GetString("interests")
		goals, _ := cmd.Flags().GetString("goals")

		body := map[string]any{"name": args[0]}
		if traits != "" {
			body["personalityTraits"] = splitCSV(traits)
		}
		if style != "" {
			body["communicationStyle"] = style
		}
		if interests != "" {
			body["interests"] = interests
		}
		if goals != "" {
			body["goals"] = goals
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/ai-reflection/create-profile", body)
		if err != nil {
			return err
		}

		var result struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
			Error   string `json:"error"`
			Profile struct {
				ID string `json:"id"`
			} `json:"profile"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Error)
		}

		printSuccess("%s", result.Message)
		fmt.Println(result.Profile.ID)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/ai-reflection/profile/"+args[0])
		if err != nil {
			return err
		}

		var result struct {
			Profile any `json:"profile"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Profile)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/ai-reflection/debug/profiles")
		if err != nil {
			return err
		}

		var result struct {
			Profiles []struct {
				ID                string `json:"id"`
				Name              string `json:"name"`
				CreatedAt         string `json:"createdAt"`
				ConversationCount int    `json:"conversationCount"`
			} `json:"profiles"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Profiles) == 0 {
			fmt.Println("No profiles found.")
			return nil
		}

		for _, p := range result.Profiles {
			fmt.Printf("%s  %-20s  %s  %d exchanges\n",
				colorize(colorCyan, shortID(p.ID)),
				p.Name,
				p.CreatedAt,
				p.ConversationCount,
			)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func init() {
	profileCreateCmd.Flags().String("traits", "", "comma-separated personality traits")
	profileCreateCmd.Flags().String("style", "", "communication style")
	profileCreateCmd.Flags().String("interests", "", "comma-separated interests")
	profileCreateCmd.Flags().String("goals", "", "comma-separated goals")

	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileListCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
