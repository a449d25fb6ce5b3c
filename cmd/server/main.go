package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lojinha/internal/ai"
	"lojinha/internal/auth"
	"lojinha/internal/httpapi"
	"lojinha/pkg/database"
	"lojinha/pkg/envconfig"
	"lojinha/pkg/logger"
)

func main() {
	envErr := envconfig.LoadEnvFile(".env")

	appLogger, err := logger.New(logger.Config{
		Level:       envconfig.GetEnv("LOG_LEVEL", "info"),
		Format:      envconfig.GetEnv("LOG_FORMAT", "json"),
		Environment: envconfig.GetEnv("ENVIRONMENT", "development"),
	})
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer appLogger.Sync()

	if envErr != nil {
		appLogger.Warn("no .env file loaded", zap.Error(envErr))
	}

	if !envconfig.GetEnvBool("GIN_DEBUG", false) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(database.LoadConfig(), appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	opts := httpapi.Options{}
	issuer := envconfig.GetEnv("OIDC_ISSUER", "")
	clientID := envconfig.GetEnv("OIDC_CLIENT_ID", "")
	if issuer != "" && clientID != "" {
		verifier, err := auth.NewVerifier(context.Background(), issuer, clientID)
		if err != nil {
			appLogger.Fatal("failed to initialize OIDC verifier", zap.Error(err))
		}
		opts.Verifier = verifier
	}

	var aiClient *ai.Client
	if extractURL := envconfig.GetEnv("AI_EXTRACT_URL", ""); extractURL != "" {
		aiClient = ai.NewClient(
			extractURL,
			envconfig.GetEnv("AI_TRYON_URL", ""),
			envconfig.GetEnv("AI_API_KEY", ""),
			appLogger,
		)
	}

	r := httpapi.SetupRouter(db, appLogger, aiClient, opts)

	addr := ":" + envconfig.GetEnv("PORT", "8080")
	appLogger.Info("starting HTTP server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		appLogger.Fatal("server stopped", zap.Error(err))
	}
}
