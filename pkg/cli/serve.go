package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/cli/config"
	"github.com/secmon-lab/shepherd/pkg/controller/dispatch"
	httpctrl "github.com/secmon-lab/shepherd/pkg/controller/http"
	"github.com/secmon-lab/shepherd/pkg/service/classifier"
	"github.com/secmon-lab/shepherd/pkg/service/worker"
	"github.com/secmon-lab/shepherd/pkg/usecase"
	"github.com/secmon-lab/shepherd/pkg/utils/async"
	"github.com/secmon-lab/shepherd/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(version string) *cli.Command {
	var addr string
	var maxConcurrent int
	var staleInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var githubCfg config.GitHub
	var geminiCfg config.Gemini
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SHEPHERD_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "max-concurrent-handlers",
			Usage:       "Maximum number of handlers running at once (0 = unbounded)",
			Value:       32,
			Sources:     cli.EnvVars("SHEPHERD_MAX_CONCURRENT_HANDLERS"),
			Destination: &maxConcurrent,
		},
		&cli.DurationFlag{
			Name:        "stale-sweep-interval",
			Usage:       "How often idle tickets are checked for staleness",
			Value:       time.Hour,
			Sources:     cli.EnvVars("SHEPHERD_STALE_SWEEP_INTERVAL"),
			Destination: &staleInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if staleInterval <= 0 {
				return goerr.New("stale-sweep-interval must be positive",
					goerr.V("interval", staleInterval.String()))
			}

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			logging.Default().Info("Configuration loaded",
				"path", appCfg.Path(),
				"channels", app.Channels,
				"team_count", len(app.Teams),
				"stale_after", app.StaleAfter.String(),
				"authorization", app.AuthorizedUserGroup != "",
			)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			slackClient, err := slackCfg.Configure(app.AuthorizedUserGroup)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack client")
			}

			pool := async.NewPool(async.WithMaxConcurrency(int64(maxConcurrent)))
			ucOpts := []usecase.Option{
				usecase.WithAppConfig(app),
				usecase.WithPool(pool),
				usecase.WithThreadResolver(slackClient),
			}

			if app.AuthorizedUserGroup != "" {
				ucOpts = append(ucOpts, usecase.WithMembershipLookup(slackClient))
				logging.Default().Info("Escalation resolve restricted to user group", "user_group", app.AuthorizedUserGroup)
			} else {
				logging.Default().Warn("No authorization user group configured, anyone can resolve escalations")
			}

			githubClient, err := githubCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize GitHub client")
			}
			if githubClient != nil {
				if err := githubClient.ValidateRepository(ctx); err != nil {
					return goerr.Wrap(err, "GitHub issue repository is not usable")
				}
				ucOpts = append(ucOpts, usecase.WithIssueTracker(githubClient))
				logging.Default().LogAttrs(ctx, slog.LevelInfo, "GitHub issue creation enabled", githubCfg.LogAttrs()...)
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize Gemini client")
			}
			if llmClient != nil {
				cls, err := classifier.New(llmClient, classifier.WithTags(app.Tags))
				if err != nil {
					return goerr.Wrap(err, "failed to initialize classifier")
				}
				ucOpts = append(ucOpts, usecase.WithClassifier(cls))
				logging.Default().LogAttrs(ctx, slog.LevelInfo, "Ticket classification enabled", geminiCfg.LogAttrs()...)
			}

			uc := usecase.New(repo, slackClient, ucOpts...)

			router, err := dispatch.New(uc.Handlers(), pool)
			if err != nil {
				return goerr.Wrap(err, "failed to build dispatch router")
			}

			staleWorker := worker.NewStaleTicketWorker(uc.Ticket, staleInterval)
			if err := staleWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start stale ticket worker")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithReadAPI(uc.Ticket, uc.Escalation),
			}
			if slackCfg.IsWebhookConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSlackWebhook(router, slackCfg.SigningSecret()))
				logging.Default().Info("Slack webhook handler enabled")
			} else {
				logging.Default().Warn("Slack signing secret not configured, Slack hooks are disabled")
			}

			httpHandler, err := httpctrl.New(httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				staleWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				staleWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// handlers already scheduled by accepted requests
				drained := make(chan struct{})
				go func() {
					pool.Wait()
					close(drained)
				}()
				select {
				case <-drained:
				case <-shutdownCtx.Done():
					logging.Default().Warn("Shutdown timed out with handlers still running")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
