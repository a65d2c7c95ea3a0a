package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/internal/mood"
	"github.com/adrianngzz/bisonbytes25-v1/internal/recommend"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>...",
		Short: "Classify the mood of a piece of text and list matching songs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			scores := mood.ScoreText(text)
			m := mood.Pick(scores)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mood: %s\n", m)
			for _, sm := range entities.ScoredMoods {
				fmt.Fprintf(out, "  %-9s %d\n", sm, scores[sm])
			}
			printRecommendations(cmd, recommend.Select(m))
			return nil
		},
	}
}

func printRecommendations(cmd *cobra.Command, recs []entities.Recommendation) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "recommendations:")
	for i, r := range recs {
		fmt.Fprintf(out, "  %d. %s - %s\n", i+1, r.Title, r.Artist)
	}
}
