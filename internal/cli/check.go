package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	checkTimeout time.Duration
	checkJSON    bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim text>",
	Short: "Verify a claim and print its credibility verdict",
	Long: `Check submits one claim for verification. The claim text is normalized
and fingerprinted; resubmitting the same text returns the existing
verdict instead of running verification again.

Example:
  veristat check "drinking bleach cures covid"
  veristat check --json "the 2024 eclipse was visible from texas"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the verdict as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	verdict, err := a.engine.SubmitClaim(ctx, text)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}

	fmt.Printf("Claim:       %s\n", verdict.ClaimID)
	fmt.Printf("Fingerprint: %s\n", verdict.Fingerprint)
	fmt.Printf("Label:       %s\n", verdict.Label)
	fmt.Printf("Score:       %.3f\n", verdict.AggregateScore)
	fmt.Printf("Confidence:  %.3f\n", verdict.AggregateConfidence)
	fmt.Println()
	fmt.Println("Contributing results:")
	for _, r := range verdict.ContributingResults {
		line := fmt.Sprintf("  %-22s %-8s conf %.2f", r.VerifierName, r.Status, r.Confidence)
		if r.Score != nil {
			line += fmt.Sprintf("  score %.2f", *r.Score)
		}
		if r.Detail != "" {
			line += "  " + r.Detail
		}
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Println("Explanation:")
	for _, step := range verdict.Explanation {
		fmt.Printf("  - %s\n", step)
	}
	return nil
}
