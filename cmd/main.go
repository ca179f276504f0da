package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	anthropicclient "convbackend/clients/anthropic"
	githubclient "convbackend/clients/github"
	"convbackend/clients/identity"
	"convbackend/config"
	"convbackend/core/logging"
	"convbackend/handlers"
	"convbackend/middleware"
	"convbackend/services/publisher"
	"convbackend/services/repositories"
	"convbackend/services/sessions"
	"convbackend/usecases/auth"
	"convbackend/usecases/conversion"
	"convbackend/utils"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("❌ Fatal error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.Environment, cfg.LogLevel)

	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.AlertingConfig.SlackWebhookURL,
		Environment: cfg.Environment,
		AppName:     "convbackend",
		LogsURL:     cfg.AlertingConfig.LogsURL,
	})

	// External clients
	oauthClient := githubclient.NewGitHubOAuthClient(
		cfg.GitHubConfig.ClientID,
		cfg.GitHubConfig.ClientSecret,
		cfg.OAuthRedirectURL(),
		cfg.GitHubConfig.OAuthBaseURL,
	)
	githubClients, err := githubclient.NewGitHubClientFactory(cfg.GitHubConfig.APIBaseURL)
	if err != nil {
		return err
	}
	identityProvider := identity.NewJWTIdentityProvider(cfg.SessionConfig.Secret)
	transformer := anthropicclient.NewAnthropicTransformer(
		cfg.AnthropicConfig.APIKey,
		cfg.AnthropicConfig.Model,
		cfg.AnthropicConfig.MaxTokens,
	)

	// Services
	sessionStore := sessions.NewCookieStore(!cfg.IsDev())
	repositorySource := repositories.NewRepositorySourceService(githubClients)
	branchPublisher := publisher.NewBranchPublisherService()

	// Use cases
	authUseCase := auth.NewAuthUseCase(oauthClient, githubClients, identityProvider)
	conversionUseCase := conversion.NewConversionUseCase(
		identityProvider,
		repositorySource,
		githubClients,
		transformer,
		branchPublisher,
	)

	authMiddleware := middleware.NewSessionAuthMiddleware(sessionStore, identityProvider)
	authHTTPHandler := handlers.NewAuthHTTPHandler(authUseCase, sessionStore, cfg.AppRootURL())
	conversionHTTPHandler := handlers.NewConversionHTTPHandler(conversionUseCase, repositorySource, sessionStore)

	router := mux.NewRouter()
	authHTTPHandler.SetupEndpoints(router)
	conversionHTTPHandler.SetupEndpoints(router, authMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("❌ Failed to write health check response")
		}
	}).Methods("GET")

	// The SPA calls the API cross-origin with cookies
	c := cors.New(cors.Options{
		AllowedOrigins:   utils.SplitAndTrim(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestLogger(alertMiddleware.HTTPMiddleware(c.Handler(router))),
		ReadHeaderTimeout: 30 * time.Second,
	}

	if err := handleGracefulShutdown(server); err != nil {
		return err
	}
	alertMiddleware.Wait()
	return nil
}

func handleGracefulShutdown(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("❌ Server error")
		return err
	case <-stop:
		log.Info().Msg("🛑 Shutdown signal received, cleaning up...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("❌ Server shutdown error")
		return err
	}

	log.Info().Msg("✅ Server stopped gracefully")
	return nil
}
