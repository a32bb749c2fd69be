// Package app is the composition root: it opens the backing stores and
// constructs every service once, wiring them together explicitly. The
// transport layer consumes the services from here.
package app

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/auth"
	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/config"
	"github.com/ScholarChen20/travel-agent/internal/db"
	dialogrepo "github.com/ScholarChen20/travel-agent/internal/dialog/repository"
	dialogservice "github.com/ScholarChen20/travel-agent/internal/dialog/service"
	"github.com/ScholarChen20/travel-agent/internal/security"
	socialrepo "github.com/ScholarChen20/travel-agent/internal/social/repository"
	socialservice "github.com/ScholarChen20/travel-agent/internal/social/service"
	userrepo "github.com/ScholarChen20/travel-agent/internal/user/repository"
)

// App holds the constructed services and the connections behind them.
type App struct {
	Auth    *auth.Authority
	Captcha *auth.CaptchaStore
	Dialog  *dialogservice.Service
	Social  *socialservice.Service

	mongo *mongo.Client
	close []func() error
	log   *zap.Logger
}

// New opens Postgres, MongoDB, and Redis per cfg and wires the services.
// On error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{log: log}

	pg, err := db.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.close = append(a.close, pg.Close)

	mongoClient, err := db.OpenMongo(ctx, cfg.MongoURI)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("mongo: %w", err)
	}
	a.mongo = mongoClient
	a.close = append(a.close, func() error { return mongoClient.Disconnect(context.Background()) })

	redisClient, err := db.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.close = append(a.close, redisClient.Close)

	store := cache.NewRedisStore(redisClient)
	coordinator := cache.NewCoordinator(store, log.Named("cache"))

	users := userrepo.NewPostgresRepository(pg)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	limiter := auth.NewLoginLimiter(store, cfg.LoginMaxAttempts, cfg.LoginWindowTTL(), log.Named("ratelimit"))
	a.Captcha = auth.NewCaptchaStore(store, cfg.CaptchaTTLDuration())
	a.Auth = auth.NewAuthority(users, store, tokens, hasher, limiter, a.Captcha, log.Named("auth"))

	mongoDB := mongoClient.Database(cfg.MongoDatabase)

	a.Dialog = dialogservice.New(
		dialogrepo.NewMongoRepository(mongoDB),
		coordinator,
		cfg.SessionTTL(), cfg.ListTTL(),
		log.Named("dialog"))

	a.Social = socialservice.New(
		socialrepo.NewMongoRepository(mongoDB),
		coordinator,
		socialservice.NewModerator(nil),
		cfg.FeedTTL(), cfg.ListTTL(), cfg.TagsTTL(),
		log.Named("social"))

	return a, nil
}

// Close releases every connection, last-opened first.
func (a *App) Close() {
	for i := len(a.close) - 1; i >= 0; i-- {
		if err := a.close[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.close = nil
}
