package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"pollgov/contexts/governance/poll-manager/adapters/system"
	workerapp "pollgov/contexts/governance/poll-manager/application/workers"
	pollhttp "pollgov/contexts/governance/poll-manager/transport/http"
	"pollgov/internal/shared/events"

	"github.com/spf13/cobra"
)

func parsePollID(raw string) (uint64, error) {
	pollID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("poll id %q must be an unsigned integer", raw)
	}
	return pollID, nil
}

func (c *cli) createCmd() *cobra.Command {
	var req pollhttp.CreatePollRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a poll starting at --height",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			resp, err := c.module.Handler.CreatePollHandler(cmd.Context(), caller, req)
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "unique poll title")
	f.StringSliceVar(&req.Options, "option", nil, "option label, repeat for each option")
	f.Int64Var(&req.Duration, "duration", 0, "voting window length in blocks")
	f.Int64Var(&req.Quorum, "quorum", 1, "revealed votes required to finalize")
	f.StringVar(&req.VotingType, "voting-type", "single", "single or multiple")
	f.BoolVar(&req.Anonymity, "anonymity", false, "hide voter identities")
	f.StringVar(&req.PollType, "poll-type", "governance", "governance, survey or election")
	f.Int64Var(&req.RewardRate, "reward-rate", 0, "reward rate (0-20)")
	f.Int64Var(&req.GracePeriod, "grace-period", 0, "blocks between end and finalization (0-30)")
	f.StringVar(&req.Location, "location", "global", "poll location")
	f.StringVar(&req.Category, "category", "dao", "dao, community or corporate")
	f.Int64Var(&req.MinStake, "min-stake", 0, "stake charged per vote")
	f.Int64Var(&req.MaxVotes, "max-votes", 1000, "cap on revealed votes")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var req pollhttp.UpdatePollRequest
	cmd := &cobra.Command{
		Use:   "update POLL_ID",
		Short: "Update title, duration and quorum of a poll you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			pollID, err := parsePollID(args[0])
			if err != nil {
				return c.fail(err)
			}
			if err := c.module.Handler.UpdatePollHandler(cmd.Context(), caller, pollID, req); err != nil {
				return c.fail(err)
			}
			return c.print(pollhttp.OKResponse{OK: true})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "new title")
	f.Int64Var(&req.Duration, "duration", 0, "new duration in blocks")
	f.Int64Var(&req.Quorum, "quorum", 0, "new quorum")
	return cmd
}

func (c *cli) setAuthorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-authority TARGET",
		Short: "Bind the principal receiving fees and stakes (once)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			req := pollhttp.SetAuthorityRequest{Target: args[0]}
			if err := c.module.Handler.SetAuthorityHandler(cmd.Context(), caller, req); err != nil {
				return c.fail(err)
			}
			return c.print(pollhttp.OKResponse{OK: true})
		},
	}
}

func (c *cli) setFeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-fee AMOUNT",
		Short: "Set the poll creation fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			fee, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return c.fail(fmt.Errorf("fee %q must be an unsigned integer", args[0]))
			}
			req := pollhttp.SetCreationFeeRequest{Fee: fee}
			if err := c.module.Handler.SetCreationFeeHandler(cmd.Context(), caller, req); err != nil {
				return c.fail(err)
			}
			return c.print(pollhttp.OKResponse{OK: true})
		},
	}
}

func (c *cli) commitmentCmd() *cobra.Command {
	var req pollhttp.CommitmentRequest
	cmd := &cobra.Command{
		Use:   "commitment",
		Short: "Print the commitment for an option and hex salt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := c.module.Handler.CommitmentHandler(cmd.Context(), req)
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
	cmd.Flags().Uint32Var(&req.Option, "option", 0, "option index")
	cmd.Flags().StringVar(&req.Salt, "salt", "", "hex encoded salt")
	return cmd
}

func (c *cli) commitCmd() *cobra.Command {
	var req pollhttp.CastVoteRequest
	cmd := &cobra.Command{
		Use:   "commit POLL_ID",
		Short: "Cast a hidden vote during the voting window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			pollID, err := parsePollID(args[0])
			if err != nil {
				return c.fail(err)
			}
			if err := c.module.Handler.CastVoteHandler(cmd.Context(), caller, pollID, req); err != nil {
				return c.fail(err)
			}
			return c.print(pollhttp.OKResponse{OK: true})
		},
	}
	cmd.Flags().StringVar(&req.Commitment, "commitment", "", "hex encoded commitment")
	return cmd
}

func (c *cli) revealCmd() *cobra.Command {
	var req pollhttp.RevealVoteRequest
	cmd := &cobra.Command{
		Use:   "reveal POLL_ID",
		Short: "Reveal a committed vote after the voting window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			pollID, err := parsePollID(args[0])
			if err != nil {
				return c.fail(err)
			}
			if err := c.module.Handler.RevealVoteHandler(cmd.Context(), caller, pollID, req); err != nil {
				return c.fail(err)
			}
			return c.print(pollhttp.OKResponse{OK: true})
		},
	}
	cmd.Flags().Uint32Var(&req.Option, "option", 0, "option index")
	cmd.Flags().StringVar(&req.Salt, "salt", "", "hex encoded salt")
	return cmd
}

func (c *cli) finalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize POLL_ID",
		Short: "Close a poll after its grace period once quorum is met",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return c.fail(err)
			}
			pollID, err := parsePollID(args[0])
			if err != nil {
				return c.fail(err)
			}
			resp, err := c.module.Handler.FinalizePollHandler(cmd.Context(), caller, pollID)
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
}

// pollRead builds a read-only subcommand taking a single poll id.
func (c *cli) pollRead(use string, short string, read func(ctx context.Context, pollID uint64) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " POLL_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pollID, err := parsePollID(args[0])
			if err != nil {
				return c.fail(err)
			}
			resp, err := read(cmd.Context(), pollID)
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return c.pollRead("get", "Show a poll", func(ctx context.Context, pollID uint64) (any, error) {
		return c.module.Handler.GetPollHandler(ctx, pollID)
	})
}

func (c *cli) tallyCmd() *cobra.Command {
	return c.pollRead("tally", "Show revealed vote counts per option", func(ctx context.Context, pollID uint64) (any, error) {
		return c.module.Handler.TallyHandler(ctx, pollID)
	})
}

func (c *cli) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of polls created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := c.module.Handler.PollCountHandler(cmd.Context())
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
}

func (c *cli) existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists TITLE",
		Short: "Report whether a poll title is taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.module.Handler.PollExistenceHandler(cmd.Context(), args[0])
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status POLL_ID VOTER",
		Short: "Show whether a voter has committed or revealed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pollID, err := parsePollID(args[0])
			if err != nil {
				return c.fail(err)
			}
			resp, err := c.module.Handler.VoteStatusHandler(cmd.Context(), pollID, args[1])
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
}

func (c *cli) settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show fee, authority target and poll capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := c.module.Handler.SettingsHandler(cmd.Context())
			if err != nil {
				return c.fail(err)
			}
			return c.print(resp)
		},
	}
}

// linePublisher writes each relayed event as one JSON line.
type linePublisher struct {
	cli *cli
}

func (p linePublisher) Publish(_ context.Context, _ string, event events.Envelope) error {
	return json.NewEncoder(p.cli.out).Encode(event)
}

func (c *cli) eventsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print pending outbox events as JSON lines and mark them published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			relay := workerapp.OutboxRelay{
				Outbox:    c.store,
				Publisher: linePublisher{cli: c},
				Clock:     system.SystemClock{},
				BatchSize: limit,
				Logger:    c.logger,
			}
			if _, err := relay.RunOnce(cmd.Context()); err != nil {
				return c.fail(err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum events to relay")
	return cmd
}
