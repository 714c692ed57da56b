package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/chatsim/internal/presentation/graph"
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/scenario"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the scripted assistant turns",
	Long: `Prints the turns the assistant reveals on mount for an entry flow, as
YAML (default), JSON or a Mermaid sequence diagram.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, _ := cmd.Flags().GetString("flow")
		format, _ := cmd.Flags().GetString("format")
		return writeScript(cmd.OutOrStdout(), domain.ParseEntryMode(flow), format)
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	scriptCmd.Flags().String("flow", "", "Entry flow: standard or onboarding")
	scriptCmd.Flags().StringP("format", "f", "yaml", "Output format: yaml, json or mermaid")
}

func writeScript(w io.Writer, mode domain.EntryMode, format string) error {
	turns := scenario.Script(mode, domain.DefaultCatalog())

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{"mode": mode, "turns": turns})
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"mode": mode, "turns": turns})
	case "mermaid":
		messages := make([]domain.Message, len(turns))
		for i, t := range turns {
			messages[i] = domain.Message{
				ID:     fmt.Sprintf("turn-%d", i+1),
				Sender: t.Sender,
				Text:   t.Text,
				Turn:   i + 1,
				Blocks: t.Blocks,
			}
		}
		_, err := io.WriteString(w, graph.GenerateMermaid(messages, nil))
		return err
	default:
		return fmt.Errorf("unknown format %q (supported: yaml, json, mermaid)", format)
	}
}
