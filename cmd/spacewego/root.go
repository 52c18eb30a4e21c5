package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dstuartbryant/spacewego/internal/config"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	level  *slog.LevelVar
	stdout io.Writer
	stderr io.Writer
}

// logger returns a JSON logger on w at the shared, reloadable level.
func (a *app) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: a.level}))
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		level:  new(slog.LevelVar),
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:           "spacewego",
		Short:         "Earth orientation, solar ephemeris and orbit propagation",
		Long:          "spacewego answers Earth orientation, geodesy and Sun queries and propagates orbits from classical elements, as an HTTP service or from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			if err := config.Init(a.v, cfgFile); err != nil {
				return err
			}
			if err := a.v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			lvl, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.level.Set(lvl)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().String("config", "", "config file (default spacewego.yaml in . or $HOME)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newOrbitCmd(a),
		newERACmd(a),
		newSunCmd(a),
		newECEFCmd(a),
	)
	return root
}
