// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authfeature "github.com/covertly/identity/internal/app/features/auth"
	healthfeature "github.com/covertly/identity/internal/app/features/health"
	socialauthfeature "github.com/covertly/identity/internal/app/features/socialauth"
	usersfeature "github.com/covertly/identity/internal/app/features/users"
	"github.com/covertly/identity/internal/app/store/oauthstate"
	userstore "github.com/covertly/identity/internal/app/store/users"
	sysauth "github.com/covertly/identity/internal/app/system/auth"
	"github.com/covertly/identity/internal/app/system/mailer"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Stores and the token manager are built
// here and shared across the feature routers; /user sits behind the bearer
// token middleware while /auth, /social-auth, and /health are public.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	users := userstore.New(deps.MongoDatabase)
	states := oauthstate.New(deps.MongoDatabase)

	tokens, err := sysauth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	// mailSender was started in Startup; the notifier enqueues onto it.
	notify := mailer.NewService(mailSender, appCfg.OTPTTL)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Password and OTP flows
	authHandler := authfeature.NewHandler(users, notify, tokens, appCfg.OTPTTL, logger)
	r.Mount("/auth", authfeature.Routes(authHandler))

	// Google OAuth and account linking
	socialHandler := socialauthfeature.NewHandler(
		users, states, notify, tokens, appCfg.OTPTTL,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.FrontendURL,
		logger,
	)
	r.Mount("/social-auth", socialauthfeature.Routes(socialHandler))

	// Profile routes require a valid bearer token
	gate := sysauth.NewMiddleware(tokens, users, logger)
	usersHandler := usersfeature.NewHandler(users, logger)
	r.Group(func(g chi.Router) {
		g.Use(gate.RequireAuth)
		g.Mount("/user", usersfeature.Routes(usersHandler))
	})

	return r, nil
}
