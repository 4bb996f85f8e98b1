package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Path to config.yaml. Defaults to the usual search locations." type:"path"`
	LogLevel string `help:"Log level for operator output." default:"info" enum:"debug,info,warn,error"`

	Migrate    MigrateCmd    `cmd:"" help:"Create or update the database schema."`
	Reconcile  ReconcileCmd  `cmd:"" name:"reconcile-streaks" help:"Recompute every stored streak from completion history."`
	LevelTable LevelTableCmd `cmd:"" name:"level-table" help:"Print XP thresholds for the first levels."`
	Award      AwardCmd      `cmd:"" help:"Grant XP to a user by hand."`
	Token      TokenCmd      `cmd:"" help:"Sign a bearer token for local development."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitctl"),
		kong.Description("Operator tooling for the Habit Hero backend"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": "v1.0.0"},
	)

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(CLI.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := ctx.Run(&Context{ConfigPath: CLI.Config, Log: log, Out: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
