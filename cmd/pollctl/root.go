package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	pollmanager "pollgov/contexts/governance/poll-manager"
	boltadapter "pollgov/contexts/governance/poll-manager/adapters/bolt"
	"pollgov/contexts/governance/poll-manager/adapters/system"
	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	pollhttp "pollgov/contexts/governance/poll-manager/transport/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "POLLCTL"

// cli holds the state shared by all subcommands of one invocation.
type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	store  *boltadapter.Store
	module pollmanager.Module
}

// run executes one pollctl invocation and always releases the store, even
// when the command fails.
func run(args []string, out io.Writer, errOut io.Writer) error {
	c, root := newRootCmd(out, errOut)
	root.SetArgs(args)
	err := root.Execute()
	if closeErr := c.close(); err == nil {
		err = closeErr
	}
	return err
}

func newRootCmd(out io.Writer, errOut io.Writer) (*cli, *cobra.Command) {
	c := &cli{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "pollctl [COMMAND]",
		Short:         "Operate a commit-reveal poll manager stored in a bbolt file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.open(); err != nil {
				return c.fail(err)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("db", "pollctl.db", "bbolt database `path`")
	flags.String("caller", "", "principal issuing the command")
	flags.Uint64("height", 0, "block height the command executes at; writes below the highest height already used in --db are rejected")
	flags.StringSlice("authority", nil, "verified authority principals")
	flags.Uint64("max-polls", entities.DefaultMaxPolls, "poll capacity used until settings are first written")
	flags.Uint64("creation-fee", entities.DefaultCreationFee, "creation fee used until settings are first written")
	flags.Bool("verbose", false, "log engine events to stderr")

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(flags)

	root.AddCommand(
		c.createCmd(),
		c.updateCmd(),
		c.setAuthorityCmd(),
		c.setFeeCmd(),
		c.commitmentCmd(),
		c.commitCmd(),
		c.revealCmd(),
		c.finalizeCmd(),
		c.getCmd(),
		c.countCmd(),
		c.existsCmd(),
		c.tallyCmd(),
		c.statusCmd(),
		c.settingsCmd(),
		c.eventsCmd(),
	)

	// SilenceErrors is set, so usage errors are printed here
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(errOut, err)
		return err
	})
	return c, root
}

func (c *cli) open() error {
	level := slog.LevelWarn
	if c.v.GetBool("verbose") {
		level = slog.LevelInfo
	}
	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))

	defaults := entities.Settings{
		CreationFee: c.v.GetUint64("creation-fee"),
		MaxPolls:    c.v.GetUint64("max-polls"),
	}
	store, err := boltadapter.Open(c.v.GetString("db"), defaults, c.logger)
	if err != nil {
		return err
	}
	c.store = store
	c.module = pollmanager.NewModule(pollmanager.Dependencies{
		Store:       store,
		Clock:       store.HeightClock(c.v.GetUint64("height")),
		Authorities: system.NewStaticAuthorityRegistry(c.v.GetStringSlice("authority")...),
		Ledger:      system.NewRecordingLedger(c.logger),
		Hasher:      system.SHA256Hasher{},
		IDGen:       system.UUIDGenerator{},
		Logger:      c.logger,
	})
	return nil
}

func (c *cli) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func (c *cli) caller() (string, error) {
	caller := strings.TrimSpace(c.v.GetString("caller"))
	if caller == "" {
		return "", fmt.Errorf("--caller is required")
	}
	return caller, nil
}

func (c *cli) print(payload any) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// fail writes err as a structured error and returns it so the process
// exits non-zero.
func (c *cli) fail(err error) error {
	resp := pollhttp.ErrorResponse{
		Code:    "error",
		Message: err.Error(),
	}
	if code := domainerrors.CodeOf(err); code != 0 {
		kind := string(domainerrors.KindOf(err))
		resp.Code = kind
		resp.Kind = kind
		resp.ErrorCode = code
	}
	encoder := json.NewEncoder(c.errOut)
	_ = encoder.Encode(resp)
	return err
}
