package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/config"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/database"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/dto"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/service"
)

var sessionCmd = &cobra.Command{
	Use:   "session [session-id]",
	Short: "Print the mirrored state of a session from Redis",
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return errors.New("COACH_REDIS_URL is required to read mirrored sessions")
	}

	client, err := database.ConnectRedis(cmd.Context(), cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	mirror := service.NewInterviewFanout(client, nil, cfg.EventsChannel, cfg.SessionMirrorTTL, zerolog.Nop())
	snapshot, err := mirror.LoadSnapshot(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		return err
	}

	resp := dto.NewSessionResponse(snapshot)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:     %s\n", resp.ID)
	if resp.Problem != nil {
		fmt.Fprintf(out, "Problem:     %s\n", *resp.Problem)
	}
	fmt.Fprintf(out, "Started:     %s\n", resp.StartedAt.Format(time.RFC3339))
	if resp.EndedAt != nil {
		fmt.Fprintf(out, "Ended:       %s\n", resp.EndedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Turns:       %d\n", resp.TurnCount)
	fmt.Fprintf(out, "Submissions: %d\n", resp.SubmissionCount)

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp.Transcript)
}
