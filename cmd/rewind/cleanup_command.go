package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"rewind/internal/logging"
	"rewind/internal/services/serializd"
)

type cleanupReport struct {
	Tag     string `json:"tag,omitempty"`
	Matched int    `json:"matched"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var (
		tag     string
		all     bool
		yes     bool
		jsonOut bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete previously imported diary entries",
		Long: `Delete diary entries created by earlier imports.

With --tag, only entries carrying that tag are deleted, so a botched run
tagged #netfliximport can be undone without touching hand-written entries.
With --all, every diary entry is deleted regardless of tags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (strings.TrimSpace(tag) != "") {
				return errors.New("specify exactly one of --tag or --all")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg, verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			diary, err := ctx.newDiary(cfg)
			if err != nil {
				return fmt.Errorf("create serializd client: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			report, err := runCleanup(signalCtx, cmd, diary, logger, strings.TrimSpace(tag), yes)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}
			if report.Matched == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching diary entries.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d diary entries (%d failed)\n",
				report.Deleted, report.Matched, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only delete entries carrying this tag")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every diary entry")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

type diaryCleaner interface {
	Login(ctx context.Context) error
	UserReviews(ctx context.Context) ([]serializd.Review, error)
	ReviewTags(ctx context.Context, reviewID int64) ([]string, error)
	DeleteReview(ctx context.Context, reviewID int64) error
}

func runCleanup(ctx context.Context, cmd *cobra.Command, diary diaryCleaner, logger *slog.Logger, tag string, skipConfirm bool) (*cleanupReport, error) {
	if err := diary.Login(ctx); err != nil {
		return nil, fmt.Errorf("serializd login: %w", err)
	}
	reviews, err := diary.UserReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch diary entries: %w", err)
	}

	matches, err := matchReviews(ctx, diary, reviews, tag)
	if err != nil {
		return nil, err
	}

	report := &cleanupReport{Tag: tag, Matched: len(matches)}
	if len(matches) == 0 {
		return report, nil
	}

	if !skipConfirm {
		prompt := fmt.Sprintf("Delete %d diary entries", len(matches))
		if tag != "" {
			prompt = fmt.Sprintf("Delete %d diary entries tagged %s", len(matches), tag)
		}
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			return nil, errors.New("aborted")
		}
	}

	for _, review := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := diary.DeleteReview(ctx, review.ID); err != nil {
			report.Failed++
			logger.Warn("delete failed", logging.Int64("review_id", review.ID), logging.Error(err))
			continue
		}
		report.Deleted++
	}
	return report, nil
}

// matchReviews selects the reviews to delete. An empty tag matches every
// review; otherwise the review's tags are fetched and compared with the
// leading '#' ignored on both sides.
func matchReviews(ctx context.Context, diary diaryCleaner, reviews []serializd.Review, tag string) ([]serializd.Review, error) {
	if tag == "" {
		return reviews, nil
	}
	want := normalizeTag(tag)
	var matches []serializd.Review
	for _, review := range reviews {
		tags, err := diary.ReviewTags(ctx, review.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch tags for entry %d: %w", review.ID, err)
		}
		for _, candidate := range tags {
			if normalizeTag(candidate) == want {
				matches = append(matches, review)
				break
			}
		}
	}
	return matches, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
