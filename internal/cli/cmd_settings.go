package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/store"
)

// newSettingsCmd creates the settings command group.
func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change persisted settings",
	}
	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show quadrant and app settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			q := a.settings.Quadrant()
			app := a.settings.App()
			if jsonOut {
				return printJSON(map[string]any{"quadrant": q, "app": app})
			}
			fmt.Println("Quadrant:")
			fmt.Printf("  reminder-days    %d\n", q.ReminderDays)
			fmt.Printf("  urgent-reminder  %t\n", q.UrgentReminder)
			fmt.Printf("  sort-method      %s\n", q.SortMethod)
			fmt.Printf("  auto-save        %t\n", q.AutoSave)
			fmt.Println("App:")
			fmt.Printf("  theme            %s\n", app.Theme)
			fmt.Printf("  ai-provider      %s\n", app.AIProvider)
			fmt.Printf("  ollama-url       %s\n", app.OllamaURL)
			fmt.Printf("  ollama-model     %s\n", app.OllamaModel)
			fmt.Printf("  openai-url       %s\n", app.OpenAIURL)
			fmt.Printf("  openai-model     %s\n", app.OpenAIModel)
			fmt.Printf("  custom-url       %s\n", app.CustomURL)
			fmt.Printf("  custom-model     %s\n", app.CustomModel)
			fmt.Printf("  auto-summary     %t\n", app.AutoSummary)
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting and persist it. Quadrant keys:
  reminder-days, urgent-reminder, sort-method, auto-save
App keys:
  theme, ai-provider, ollama-url, ollama-model, openai-url,
  openai-key, openai-model, custom-url, custom-key, custom-model,
  auto-summary`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := applySetting(a, strings.ToLower(args[0]), args[1]); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s\n", strings.ToLower(args[0]), args[1])
			return nil
		},
	}
}

func applySetting(a *app, key, value string) error {
	q := a.settings.Quadrant()
	switch key {
	case "reminder-days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("reminder-days must be a non-negative integer")
		}
		q.ReminderDays = n
		return a.settings.SetQuadrant(q)
	case "urgent-reminder":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("urgent-reminder must be true or false")
		}
		q.UrgentReminder = b
		return a.settings.SetQuadrant(q)
	case "sort-method":
		m := store.SortMethod(value)
		if !store.IsValidSortMethod(m) {
			return fmt.Errorf("invalid sort method: %s", value)
		}
		q.SortMethod = m
		return a.settings.SetQuadrant(q)
	case "auto-save":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto-save must be true or false")
		}
		q.AutoSave = b
		return a.settings.SetQuadrant(q)
	}

	s := a.settings.App()
	switch key {
	case "theme":
		s.Theme = value
	case "ai-provider":
		s.AIProvider = value
	case "ollama-url":
		s.OllamaURL = value
	case "ollama-model":
		s.OllamaModel = value
	case "openai-url":
		s.OpenAIURL = value
	case "openai-key":
		s.OpenAIKey = value
	case "openai-model":
		s.OpenAIModel = value
	case "custom-url":
		s.CustomURL = value
	case "custom-key":
		s.CustomKey = value
	case "custom-model":
		s.CustomModel = value
	case "auto-summary":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto-summary must be true or false")
		}
		s.AutoSummary = b
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return a.settings.SetApp(s)
}
