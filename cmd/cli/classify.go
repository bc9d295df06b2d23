package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/flowbaker/categorizer/internal/initialization"
	"github.com/flowbaker/categorizer/internal/managers"
	"github.com/flowbaker/categorizer/pkg/categorizer"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type classifyResult struct {
	Description  string                `json:"description" yaml:"description"`
	Category     categorizer.Category  `json:"category" yaml:"category"`
	Confidence   float64               `json:"confidence" yaml:"confidence"`
	RunID        string                `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Conversation []categorizer.Message `json:"conversation,omitempty" yaml:"conversation,omitempty"`
}

func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description...]",
		Short: "Classify one or more transaction descriptions",
		Long: `Classify transaction descriptions given as arguments, or one per line on stdin when no
argument is given.`,
		Example: `  categorizer classify "CB STARBUCKS PARIS 12/03"
  categorizer classify --mode direct --output yaml "PRLV SEPA EDF" "SNCF INTERNET"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args)
		},
	}

	cmd.Flags().String("mode", "", "Classifier mode: agentic or direct (default from config)")
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().Bool("show-conversation", false, "Include the agent conversation in the output")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	output, _ := cmd.Flags().GetString("output")
	showConversation, _ := cmd.Flags().GetBool("show-conversation")

	if mode != "" && !categorizer.Mode(mode).IsValid() {
		return fmt.Errorf("unknown mode %q", mode)
	}

	descriptions := args
	if len(descriptions) == 0 {
		var err error
		descriptions, err = readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if len(descriptions) == 0 {
		return fmt.Errorf("no description given")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	container, err := initialization.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	outcomes, err := container.ClassificationManager.ClassifyBatch(ctx, managers.ClassifyBatchParams{
		Descriptions: descriptions,
		Mode:         categorizer.Mode(mode),
	})
	if err != nil {
		return err
	}

	results := make([]classifyResult, len(outcomes))
	for i, outcome := range outcomes {
		results[i] = classifyResult{
			Description: descriptions[i],
			Category:    outcome.Category,
			Confidence:  outcome.Confidence,
			RunID:       outcome.RunID,
		}
		if showConversation {
			results[i].Conversation = outcome.Conversation
		}
	}

	return writeResults(cmd.OutOrStdout(), output, results)
}

func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return lines, nil
}

func writeResults(w io.Writer, format string, results []classifyResult) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(results)
	case "text":
		for _, result := range results {
			fmt.Fprintf(w, "%s\t%s\t%.1f\n", result.Category, result.Description, result.Confidence)
			for _, message := range result.Conversation {
				fmt.Fprintf(w, "  [%s] %s\n", message.Agent, message.Content)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
