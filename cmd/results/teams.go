package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/dota2-results/internal/app"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

type teamLister interface {
	ListTeams(ctx context.Context, startAt int64) ([]match.TeamInfo, error)
}

func teamsCmd(e *env) *cobra.Command {
	var startAt int64
	var maxPages int

	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List professional teams with their ids and known handles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.SteamAPIKey == "" {
				return fmt.Errorf("STEAM_API_KEY is required")
			}
			client := app.NewSteamClient(e.cfg, e.logger)
			handles := usecase.NewTeamHandles(e.cfg.TeamHandles)
			n, err := printTeams(cmd.Context(), client, handles, cmd.OutOrStdout(), startAt, maxPages)
			e.logger.Info("teams listed", "count", n)
			return err
		},
	}
	cmd.Flags().Int64Var(&startAt, "start-at", 0, "First team id to request")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Stop after this many pages (0 means until exhausted)")
	return cmd
}

// printTeams pages upward from startAt until the provider returns an empty
// page, writing one tab separated line per team.
func printTeams(ctx context.Context, lister teamLister, handles *usecase.TeamHandles, w io.Writer, startAt int64, maxPages int) (int, error) {
	count := 0
	for page := 0; maxPages <= 0 || page < maxPages; page++ {
		teams, err := lister.ListTeams(ctx, startAt)
		if err != nil {
			return count, err
		}
		if len(teams) == 0 {
			return count, nil
		}
		for _, team := range teams {
			line := fmt.Sprintf("%d\t%s\t%s", team.ID, team.Tag, team.Name)
			if handle, ok := handles.Lookup(team.ID, team.Name); ok {
				line += "\t@" + handle
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return count, err
			}
			count++
			if team.ID >= startAt {
				startAt = team.ID + 1
			}
		}
	}
	return count, nil
}
