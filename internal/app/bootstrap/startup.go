// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"strconv"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/covertly/identity/internal/app/store/oauthstate"
	"github.com/covertly/identity/internal/app/system/mailer"
	"github.com/covertly/identity/internal/app/system/tasks"
	"github.com/covertly/identity/internal/app/system/timeouts"
)

// Background workers started here and stopped in Shutdown. BuildHandler
// wires mailSender into the notification service.
var (
	mailSender *tasks.Sender
	jobRunner  *tasks.Runner
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. The mail
// sender and the periodic job runner come up here so notifications and OAuth
// state cleanup are live before the first request.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeout tiers overridden from environment", zap.Int("count", n))
	}

	smtp := mailer.NewSMTP(
		appCfg.MailSMTPHost,
		strconv.Itoa(appCfg.MailSMTPPort),
		appCfg.MailSMTPUser,
		appCfg.MailSMTPPass,
		appCfg.MailFrom,
	)
	mailSender = tasks.NewSender(smtp, logger, 0)
	mailSender.Start()

	stateStore := oauthstate.New(deps.MongoDatabase)
	jobRunner = tasks.NewRunner(logger, tasks.OAuthStateCleanupJob(stateStore, logger))
	jobRunner.Start()

	return nil
}
