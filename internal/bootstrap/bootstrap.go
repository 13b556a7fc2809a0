package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/fathima-sithara/account-service/internal/config"
	"github.com/fathima-sithara/account-service/internal/database"
	"github.com/fathima-sithara/account-service/internal/handlers"
	"github.com/fathima-sithara/account-service/internal/mailer"
	"github.com/fathima-sithara/account-service/internal/otp"
	"github.com/fathima-sithara/account-service/internal/ratelimit"
	"github.com/fathima-sithara/account-service/internal/repository"
	"github.com/fathima-sithara/account-service/internal/services"
	"github.com/fathima-sithara/account-service/internal/token"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type AppContext struct {
	Config  *config.Config
	Logger  *zap.Logger
	Sugar   *zap.SugaredLogger
	Mongo   *mongo.Client
	Redis   *redis.Client
	Tokens  *token.Manager
	Handler *handlers.Handler
}

type CleanupFn func(context.Context)

func Init(configPath string) (*AppContext, CleanupFn, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	sugar := logger.Sugar()

	app := &AppContext{Config: cfg, Logger: logger, Sugar: sugar}
	sugar.Infof("Starting account-service in %s environment", cfg.App.Env)

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, sugar)
	if err != nil {
		return nil, nil, err
	}
	app.Mongo = mongoClient

	rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
	if err != nil {
		return nil, nil, err
	}
	app.Redis = rdb

	brevo := mailer.NewBrevoClient(cfg.Brevo.APIKey, cfg.Brevo.SenderEmail, cfg.Brevo.SenderName)
	if !brevo.IsConfigured() {
		sugar.Warn("Brevo client not fully configured. OTP delivery will fail.")
	}

	app.Tokens = token.NewManager(cfg.App.JWT.Secret, cfg.SessionTTL())
	engine := otp.NewEngine(cfg.VerifyOTPWindow(), cfg.ResetOTPWindow())
	limiter := ratelimit.NewRedisLimiter(rdb, "otp_rate_limit:", cfg.Security.OtpRateLimitPerEmailPerHour, time.Hour)

	userRepo := repository.NewMongoUserRepo(db, cfg.User.Collection)
	authSvc := services.NewAuthService(userRepo, app.Tokens, engine, brevo, limiter, cfg.Security.PasswordHashCost, sugar)
	app.Handler = handlers.NewHandler(authSvc, cfg.IsProduction(), cfg.SessionTTL(), sugar)

	return app, func(ctx context.Context) {
		if cerr := logger.Sync(); cerr != nil {
			log.Printf("Logger sync error: %v", cerr)
		}
		if cerr := mongoClient.Disconnect(ctx); cerr != nil {
			sugar.Errorf("MongoDB disconnect error: %v", cerr)
		}
		if cerr := rdb.Close(); cerr != nil {
			sugar.Errorf("Redis client close error: %v", cerr)
		}
	}, nil
}
