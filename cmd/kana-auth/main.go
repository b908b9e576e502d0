package main

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kana-labs/kana-auth/adapters/events"
	"github.com/kana-labs/kana-auth/adapters/oauth"
	"github.com/kana-labs/kana-auth/adapters/store"
	"github.com/kana-labs/kana-auth/adapters/tokenizer"
	"github.com/kana-labs/kana-auth/internal/config"
	"github.com/kana-labs/kana-auth/ports"
	"github.com/kana-labs/kana-auth/service"
	transporthttp "github.com/kana-labs/kana-auth/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var (
		challenges  ports.ChallengeStore
		revocations ports.RevocationRegistry
		directory   ports.IdentityDirectory
		eventPub    ports.EventPublisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse redis URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Fatal("failed to create redis publisher", zap.Error(err))
		}

		challenges = store.NewRedisChallengeStore(redisClient)
		revocations = store.NewRedisRevocationRegistry(redisClient)
		directory = store.NewRedisIdentityDirectory(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)

		logger.Info("using redis stores", zap.String("url", cfg.RedisURL))
	} else {
		challenges = store.NewMemoryChallengeStore()
		revocations = store.NewMemoryRevocationRegistry()
		directory = store.NewMemoryIdentityDirectory()
		eventPub = events.NewNoopPublisher()

		logger.Warn("REDIS_URL not set, using in-memory stores")
	}

	authService := service.NewAuthService(
		challenges,
		revocations,
		directory,
		tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret), cfg.TokenLifetime),
		oauth.NewGoogleExchanger(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURI:  cfg.GoogleRedirectURI,
		}),
		eventPub,
		logger,
	)

	router := transporthttp.SetupRouter(authService, logger)

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
