package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	feedbackUser   string
	feedbackRating int
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback <fingerprint> <text>",
	Short: "Submit feedback on a claim's verdict",
	Long: `Feedback submits a user comment and rating (1-5) on a claim identified
by its fingerprint. Submissions pass the trust gate: rate-limited,
manipulative, or low-reputation feedback is recorded but rejected, and
only accepted feedback can bias future verdicts.

Example:
  veristat feedback --user alice --rating 2 3f1a9c... "the cited study was retracted"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().StringVar(&feedbackUser, "user", "", "submitting user id (required)")
	feedbackCmd.Flags().IntVar(&feedbackRating, "rating", 3, "rating from 1 (false) to 5 (true)")
	_ = feedbackCmd.MarkFlagRequired("user")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	fingerprint := args[0]
	text := strings.Join(args[1:], " ")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ev, err := a.engine.SubmitFeedback(feedbackUser, fingerprint, text, feedbackRating)
	if err != nil {
		return fmt.Errorf("feedback failed: %w", err)
	}

	if ev.Accepted {
		fmt.Printf("Feedback %s accepted (quality %.2f)\n", ev.ID, ev.Quality)
	} else {
		fmt.Printf("Feedback %s rejected: %s\n", ev.ID, ev.Reason)
	}
	return nil
}
