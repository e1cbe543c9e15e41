package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/assistant"
	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

const chatSystemPrompt = `You are a concise assistant for a journaling and
task-planning tool. Answer plainly and keep replies short.`

// newChatCmd creates the chat command.
func newChatCmd() *cobra.Command {
	var noStream bool
	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Ask the configured AI provider",
		Long: `Send a prompt to the configured AI provider (ollama, openai or
custom; see 'quad settings'). The reply streams to stdout as it
arrives unless --no-stream is set.

With no argument the prompt is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			prompt, err := promptFromArgsOrStdin(args)
			if err != nil {
				return err
			}

			client := assistant.NewClient(assistant.ConfigFromApp(a.settings.App()), a.logger)
			ctx := cmd.Context()

			if noStream {
				reply, err := client.Chat(ctx, chatSystemPrompt, prompt)
				if err != nil {
					return err
				}
				fmt.Println(reply)
				return nil
			}

			err = client.ChatStream(ctx, chatSystemPrompt, prompt, func(chunk string) error {
				_, werr := os.Stdout.WriteString(chunk)
				return werr
			})
			if err != nil {
				return err
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for the full reply instead of streaming")
	return cmd
}

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd() *cobra.Command {
	var (
		entryID string
		apply   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Classify journal text into quadrant tasks",
		Long: `Ask the AI provider to triage free-form text into the four
quadrants. The source is the argument, --entry <id>, or stdin.

By default the proposed tasks are printed as a preview; --apply
imports them into the quadrant store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var text string
			switch {
			case entryID != "":
				e, err := a.journal.Get(entryID)
				if err != nil {
					return err
				}
				text = e.Title + "\n\n" + e.Content
			default:
				text, err = promptFromArgsOrStdin(args)
				if err != nil {
					return err
				}
			}

			client := assistant.NewClient(assistant.ConfigFromApp(a.settings.App()), a.logger)
			payload, err := client.AnalyzeTasks(cmd.Context(), text)
			if err != nil {
				return err
			}

			if !apply {
				if jsonOut {
					return printJSON(payload)
				}
				printAnalysisPreview(payload)
				return nil
			}

			res, err := a.store.ApplyImport(payload)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(res)
			}
			fmt.Printf("Imported: %d added, %d skipped\n", res.Added, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&entryID, "entry", "", "analyze a journal entry by id")
	cmd.Flags().BoolVar(&apply, "apply", false, "import the proposed tasks instead of previewing")
	return cmd
}

func printAnalysisPreview(payload store.ImportPayload) {
	total := 0
	for _, q := range task.ValidQuadrants() {
		proposed := payload.Quadrants[q]
		if len(proposed) == 0 {
			continue
		}
		fmt.Printf("%s:\n", q.Label())
		for _, p := range proposed {
			line := "  - " + p.Title
			if p.Deadline != "" {
				line += " (due " + p.Deadline + ")"
			}
			fmt.Println(line)
			total++
		}
	}
	if total == 0 {
		fmt.Println("No tasks proposed.")
		return
	}
	fmt.Printf("%d task(s) proposed; rerun with --apply to import them.\n", total)
}

func promptFromArgsOrStdin(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no input given")
	}
	return text, nil
}
