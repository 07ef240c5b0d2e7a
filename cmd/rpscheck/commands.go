package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/internal/rpsclient"
	"github.com/park285/Cheese-RPS-bot/internal/session"
	"github.com/park285/Cheese-RPS-bot/pkg/rpsdto"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	BaseURL string
	As      string
	Timeout time.Duration
	JSON    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "rpscheck",
		Short:         "Drive a running rps-server from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	base := os.Getenv("RPS_BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "url", base, "rps-server base URL (env RPS_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.As, "as", os.Getenv("X_USER_ID"), "sender id sent as X-User-Id (env X_USER_ID)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 8*time.Second, "per-request timeout")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print raw JSON responses")

	cmd.AddCommand(newStartCommand(opts))
	cmd.AddCommand(newMoveCommand(opts))
	cmd.AddCommand(newGamesCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	return cmd
}

func (o *rootOptions) client() *rpsclient.Client {
	return rpsclient.NewClient(o.BaseURL, rpsclient.WithTimeout(o.Timeout))
}

func (o *rootOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.Timeout)
}

func (o *rootOptions) sender() (string, error) {
	if strings.TrimSpace(o.As) == "" {
		return "", fmt.Errorf("--as (or X_USER_ID) is required")
	}
	return o.As, nil
}

func newStartCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <opponent> <rock|paper|scissors>",
		Short: "Start a game against opponent with your first move",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := opts.sender()
			if err != nil {
				return err
			}
			move, err := rps.ParseMove(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()
			resp, err := opts.client().StartGame(ctx, sender, args[0], move)
			if err != nil {
				return err
			}
			return printAttributes(cmd.OutOrStdout(), opts, resp)
		},
	}
}

func newMoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <host> <rock|paper|scissors>",
		Short: "Answer the game host started against you",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := opts.sender()
			if err != nil {
				return err
			}
			move, err := rps.ParseMove(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()
			resp, err := opts.client().SubmitMove(ctx, sender, args[0], move)
			if err != nil {
				return err
			}
			return printAttributes(cmd.OutOrStdout(), opts, resp)
		},
	}
}

func newGamesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "games [host]",
		Short: "List every game, or the games hosted by host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			var (
				resp *rpsdto.GamesResponse
				err  error
			)
			if len(args) == 1 {
				resp, err = opts.client().HostGames(ctx, args[0])
			} else {
				resp, err = opts.client().AllGames(ctx)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.JSON {
				return writeJSON(out, resp)
			}
			for _, g := range resp.Games {
				label := fmt.Sprintf("%x", g.Key)
				if k, err := session.DecodeKey(g.Key); err == nil {
					label = k.String()
				}
				fmt.Fprintf(out, "%-40s host=%-8s opponent=%-8s %s\n", label, g.Game.HostMove, g.Game.OpponentMove, g.Game.Result)
			}
			fmt.Fprintf(out, "%d game(s)\n", len(resp.Games))
			return nil
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <player>",
		Short: "Show archived results for player, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			resp, err := opts.client().History(ctx, args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.JSON {
				return writeJSON(out, resp)
			}
			for _, r := range resp.Results {
				fmt.Fprintf(out, "%s  %s (%s) vs %s (%s): %s\n",
					r.ResolvedAt.Format(time.RFC3339), r.HostID, r.HostMove, r.OpponentID, r.OpponentMove, r.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}

func printAttributes(out io.Writer, opts *rootOptions, resp *rpsdto.Response) error {
	if opts.JSON {
		return writeJSON(out, resp)
	}
	for _, a := range resp.Attributes {
		fmt.Fprintf(out, "%s: %s\n", a.Key, a.Value)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
