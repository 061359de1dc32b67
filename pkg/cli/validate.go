package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/cli/config"
	domainConfig "github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✔")
	ngMark   = color.New(color.FgRed).Sprint("✘")
	keyStyle = color.New(color.Bold)
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var githubCfg config.GitHub

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally the GitHub issue repository",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			return runValidate(ctx, c.Root().Writer, appCfg.Path(), &githubCfg)
		},
	}
}

func runValidate(ctx context.Context, w io.Writer, path string, githubCfg *config.GitHub) error {
	if w == nil {
		w = os.Stdout
	}

	if path == "" {
		return goerr.New("--config is required for validate")
	}

	app, err := loadApp(path)
	if err != nil {
		fmt.Fprintf(w, "%s %s: %s\n", ngMark, keyStyle.Sprint(path), err.Error())
		return goerr.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintf(w, "%s %s\n", okMark, keyStyle.Sprint(path))
	printAppSummary(w, app)

	if !githubCfg.IsConfigured() {
		return nil
	}

	client, err := githubCfg.Configure()
	if err != nil {
		fmt.Fprintf(w, "%s GitHub App: %s\n", ngMark, err.Error())
		return err
	}
	if err := client.ValidateRepository(ctx); err != nil {
		fmt.Fprintf(w, "%s GitHub repository: %s\n", ngMark, err.Error())
		return goerr.Wrap(err, "GitHub repository validation failed")
	}
	fmt.Fprintf(w, "%s GitHub repository accepts issues\n", okMark)

	return nil
}

func loadApp(path string) (*domainConfig.App, error) {
	file, err := config.LoadAppConfiguration(path)
	if err != nil {
		return nil, err
	}
	return file.ToDomainApp()
}

func printAppSummary(w io.Writer, app *domainConfig.App) {
	channels := "all channels the bot is in"
	if len(app.Channels) > 0 {
		channels = fmt.Sprint(app.Channels)
	}
	fmt.Fprintf(w, "  %s %s\n", keyStyle.Sprint("channels:"), channels)
	fmt.Fprintf(w, "  %s :%s:\n", keyStyle.Sprint("resolved reaction:"), app.Reactions.Resolved)
	if app.Reactions.Escalate != "" {
		fmt.Fprintf(w, "  %s :%s: -> %s\n", keyStyle.Sprint("escalate reaction:"), app.Reactions.Escalate, app.Reactions.EscalateTeam)
	}
	for _, team := range app.Teams {
		fmt.Fprintf(w, "  %s %s (%s)\n", keyStyle.Sprint("team:"), team.ID, team.Name)
	}
	if len(app.Tags) > 0 {
		fmt.Fprintf(w, "  %s %v\n", keyStyle.Sprint("tags:"), app.Tags)
	}
	fmt.Fprintf(w, "  %s %s\n", keyStyle.Sprint("stale after:"), app.StaleAfter)
	fmt.Fprintf(w, "  %s %d\n", keyStyle.Sprint("home page size:"), app.HomePageSize)
}
