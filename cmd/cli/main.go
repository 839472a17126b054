package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sentiview/cmd/cli/internal/commands"
	"github.com/wolfeidau/sentiview/internal/logger"
	"github.com/wolfeidau/sentiview/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Login     commands.LoginCmd     `cmd:"" help:"Log in to the analysis service"`
		Register  commands.RegisterCmd  `cmd:"" help:"Create an account and log in"`
		Logout    commands.LogoutCmd    `cmd:"" help:"Log out and forget the stored token"`
		Whoami    commands.WhoamiCmd    `cmd:"" help:"Show the logged in user"`
		Profile   commands.ProfileCmd   `cmd:"" help:"Show or update your profile"`
		Dashboard commands.DashboardCmd `cmd:"" help:"Show analysis totals and recent analyses"`
		Analyze   commands.AnalyzeCmd   `cmd:"" help:"Run a sentiment analysis"`
		Reports   commands.ReportsCmd   `cmd:"" help:"Browse past analyses"`
		Config    commands.ConfigCmd    `cmd:"" help:"Show or change stored settings"`

		Server    string        `help:"Analysis service URL" env:"SENTIVIEW_SERVER"`
		ConfigDir string        `help:"Configuration directory (default ~/.sentiview)" env:"SENTIVIEW_CONFIG_DIR" type:"path"`
		Timeout   time.Duration `help:"Request timeout" env:"SENTIVIEW_TIMEOUT"`
		NoCache   bool          `help:"Do not cache report responses"`
		Debug     bool          `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("sentiview"),
		kong.Description("Social media sentiment analysis from the command line."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	lg := logger.Setup(cli.Debug)
	log.Logger = lg

	shutdown, err := telemetry.InitTelemetry(ctx, "sentiview-cli", version)
	cmd.FatalIfErrorf(err)

	err = cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Version:   version,
		Server:    cli.Server,
		ConfigDir: cli.ConfigDir,
		Timeout:   cli.Timeout,
		NoCache:   cli.NoCache,
		Logger:    lg,
	})

	// flush telemetry before exiting, even on error
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := shutdown(shutdownCtx); serr != nil {
		lg.Debug().Err(serr).Msg("failed to shut down telemetry")
	}

	cmd.FatalIfErrorf(err)
}
