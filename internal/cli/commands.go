package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/shortener"
)

func newMigrateCommand(open Opener) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				if status {
					return printMigrationStatus(ctx, cmd, env)
				}
				if env.Migrate == nil {
					return errors.New("this backend has no migrations")
				}
				applied, err := env.Migrate(ctx)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether each is applied, without applying any")
	return cmd
}

func printMigrationStatus(ctx context.Context, cmd *cobra.Command, env *Env) error {
	if env.Status == nil {
		return errors.New("this backend has no migrations")
	}
	states, err := env.Status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE")
	for _, s := range states {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(w, "%s\t%s\n", s.Version, state)
	}
	return w.Flush()
}

func parseOwner(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid --owner %q: must be a UUID", raw)
	}
	return id, nil
}

func newShortenCommand(open Opener) *cobra.Command {
	var rawURL, rawOwner string

	cmd := &cobra.Command{
		Use:   "shorten",
		Short: "Create a short code for a URL",
		Example: `  shortenctl shorten --url "https://example.com/docs"
  shortenctl shorten --url "https://example.com" --owner 0192f1d4-7c3e-7a55-9a3b-2f4f0e1c2d3a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := shortener.ValidateURL(rawURL); err != nil {
				return err
			}
			owner, err := parseOwner(rawOwner)
			if err != nil {
				return err
			}

			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				svc, err := shortener.NewShorteningService(env.Repo, &shortener.ShorteningConfig{
					Generator:   env.Generator,
					MaxAttempts: env.Attempts,
					Logger:      env.Logger,
				})
				if err != nil {
					return err
				}

				rec, err := svc.Shorten(ctx, rawURL, owner)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "id:        %s\n", rec.ID)
				fmt.Fprintf(out, "code:      %s\n", rec.ShortCode)
				fmt.Fprintf(out, "short url: %s\n", env.ShortURL(rec.ShortCode))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&rawURL, "url", "u", "", "URL to shorten (required)")
	cmd.Flags().StringVar(&rawOwner, "owner", "", "owner user id; omit for an anonymous record")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newListCommand(open Opener) *cobra.Command {
	var rawOwner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's live short URLs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := parseOwner(rawOwner)
			if err != nil {
				return err
			}
			if owner == uuid.Nil {
				return errors.New("--owner is required")
			}

			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				recs, err := shortener.NewOwnershipService(env.Repo, nil).ListURLs(ctx, owner)
				if err != nil {
					return err
				}

				if len(recs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no urls")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCODE\tCLICKS\tCREATED\tORIGINAL URL")
				for _, rec := range recs {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
						rec.ID, rec.ShortCode, rec.ClickCount,
						rec.CreatedAt.Format(time.RFC3339), rec.OriginalURL)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&rawOwner, "owner", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newStatsCommand(open Opener) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the click count of a live short code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !shortener.ValidCode(code) {
				return fmt.Errorf("invalid --code %q", code)
			}

			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				rec, err := env.Repo.FindByShortCode(ctx, code)
				if err != nil {
					if errx.Is(err, errx.NotFound) {
						return fmt.Errorf("short code %q not found", code)
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "code:         %s\n", rec.ShortCode)
				fmt.Fprintf(out, "original url: %s\n", rec.OriginalURL)
				fmt.Fprintf(out, "clicks:       %d\n", rec.ClickCount)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&code, "code", "c", "", "short code (required)")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}
