package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jmallek/conclave/internal/config"
	"github.com/jmallek/conclave/internal/triage"
	"github.com/jmallek/conclave/pkg/models"
)

var (
	triageUser      string
	triageRole      string
	triageProject   string
	triageComponent string
	triageTask      string
	triageDraft     bool
)

var triageCmd = &cobra.Command{
	Use:   "triage <feedback text>",
	Short: "Triage a piece of feedback",
	Long: `Run one piece of free-text feedback through the triage pipeline and
print the classification: category, sentiment, priority, actionable
items, and the role it would be routed to.

With --draft, feedback that expects an answer gets a reply drafted via
the Anthropic API (requires ANTHROPIC_API_KEY or configured Bedrock).

Examples:
  conclave triage "The export button crashes on large files, please fix ASAP"
  conclave triage --user alice --role stakeholder "Can we add dark mode?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTriage,
}

func init() {
	triageCmd.Flags().StringVar(&triageUser, "user", "cli", "User id attributed to the feedback")
	triageCmd.Flags().StringVar(&triageRole, "role", "", "User role (e.g. stakeholder)")
	triageCmd.Flags().StringVar(&triageProject, "project", "", "Related project id")
	triageCmd.Flags().StringVar(&triageComponent, "component", "", "Related component id")
	triageCmd.Flags().StringVar(&triageTask, "task", "", "Related task id")
	triageCmd.Flags().BoolVar(&triageDraft, "draft", false, "Draft a reply when the feedback expects one")
}

func runTriage(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")

	processor := triage.NewProcessor(triage.NewFeedbackStore(), zerolog.Nop())
	if triageDraft {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		responder, err := newResponder(cfg)
		if err != nil {
			return fmt.Errorf("response drafting unavailable: %w", err)
		}
		processor = processor.WithResponder(responder)
	}

	userCtx := &triage.UserContext{
		Role:        triageRole,
		ProjectID:   triageProject,
		ComponentID: triageComponent,
		TaskID:      triageTask,
	}
	item := processor.Process(triageUser, content, userCtx, nil)

	printTriageResult(item)
	return nil
}

// printTriageResult renders one triaged item to stdout.
func printTriageResult(item models.FeedbackItem) {
	fmt.Printf("category:   %s\n", color.CyanString(string(item.Category)))
	fmt.Printf("sentiment:  %s\n", string(item.Sentiment))
	fmt.Printf("priority:   %s\n", priorityColor(item.Priority).Sprint(string(item.Priority)))
	fmt.Printf("routed to:  %s\n", color.GreenString(item.RoutedTo))

	if len(item.ActionableItems) > 0 {
		fmt.Println("actionable:")
		for _, a := range item.ActionableItems {
			fmt.Printf("  - %s\n", a)
		}
	}
	if item.RequiresResponse {
		fmt.Println("requires a response")
	}
	for _, resp := range item.Responses {
		fmt.Printf("\ndraft reply (%s):\n%s\n", resp.Responder, resp.Content)
	}
}

// priorityColor maps a priority to its display color.
func priorityColor(p models.Priority) *color.Color {
	switch p {
	case models.PriorityCritical:
		return color.New(color.FgRed, color.Bold)
	case models.PriorityHigh:
		return color.New(color.FgYellow)
	case models.PriorityLow:
		return color.New(color.Faint)
	default:
		return color.New(color.FgWhite)
	}
}
