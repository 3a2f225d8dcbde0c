package routes

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/xyz-asif/lostfound/internal/config"
	"github.com/xyz-asif/lostfound/internal/features/auth"
	"github.com/xyz-asif/lostfound/internal/features/items"
	"github.com/xyz-asif/lostfound/internal/middleware"
	"github.com/xyz-asif/lostfound/internal/pkg/cloudinary"
	"github.com/xyz-asif/lostfound/internal/pkg/jwt"
	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	"github.com/xyz-asif/lostfound/internal/pkg/ratelimit"
	"github.com/xyz-asif/lostfound/internal/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const uploadsPath = "/uploads"

// reporterDirectoryAdapter adapts auth.Repository to items.UserDirectory
type reporterDirectoryAdapter struct {
	repo *auth.Repository
}

func (a *reporterDirectoryAdapter) Reporters(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]items.Reporter, error) {
	users, err := a.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[primitive.ObjectID]items.Reporter, len(users))
	for id, u := range users {
		out[id] = items.Reporter{ID: u.ID, Username: u.Username}
	}
	return out, nil
}

// SetupRoutes wires repositories, the matcher and the image store, then mounts
// every feature under /api/v1. The returned func releases what it opened.
func SetupRoutes(ctx context.Context, router *gin.Engine, db *mongo.Database, cfg *config.Config) (func(), error) {
	api := router.Group("/api/v1")
	cleanup := func() {}

	tokens, err := jwt.NewManager(&jwt.Config{
		Secret:       cfg.JWTSecret,
		AccessExpiry: cfg.TokenTTL(),
		Issuer:       "lostfound-api",
	})
	if err != nil {
		return cleanup, err
	}
	requireAuth := middleware.Auth(tokens)

	usersRepo := auth.NewRepository(db)
	itemsRepo := items.NewRepository(db, cfg.MongoTransactions)
	if err := usersRepo.EnsureIndexes(ctx); err != nil {
		return cleanup, err
	}
	if err := itemsRepo.EnsureIndexes(ctx); err != nil {
		return cleanup, err
	}

	images, err := newImageStore(ctx, router, cfg)
	if err != nil {
		return cleanup, err
	}

	limiter, redisClient, err := newAuthLimiter(ctx, cfg)
	if err != nil {
		return cleanup, err
	}
	if redisClient != nil {
		cleanup = func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("closing redis", zap.Error(err))
			}
		}
	}

	matcher := items.NewMatcher(itemsRepo,
		items.WithThreshold(cfg.MatchThreshold),
		items.WithSymmetricReject(cfg.MatchSymmetricReject),
	)
	itemsService := items.NewService(itemsRepo, matcher, images, &reporterDirectoryAdapter{repo: usersRepo})

	auth.RegisterRoutes(api, auth.NewHandler(usersRepo, tokens, cfg.BcryptCost), ratelimit.Middleware(limiter), requireAuth)
	items.RegisterRoutes(api, items.NewHandler(itemsService), requireAuth)

	return cleanup, nil
}

func newImageStore(ctx context.Context, router *gin.Engine, cfg *config.Config) (storage.Store, error) {
	switch cfg.ImageStore {
	case config.ImageStoreCloudinary:
		cld, err := cloudinary.NewService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryUploadFolder)
		if err != nil {
			return nil, err
		}
		return cld, nil
	case config.ImageStoreMinio:
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ImageStoreDisk:
		disk, err := storage.NewDiskStore(cfg.UploadDir, uploadsPath)
		if err != nil {
			return nil, err
		}
		router.Static(uploadsPath, disk.Dir())
		return disk, nil
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}

// newAuthLimiter shares counters through redis when REDIS_ADDR is set
func newAuthLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		limiter := ratelimit.New(cfg.RateLimitAuthPerMinute, time.Minute)
		limiter.StartCleanup(ctx, 5*time.Minute)
		return limiter, nil, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("rate limiting through redis", zap.String("addr", cfg.RedisAddr))
	return ratelimit.NewRedis(client, "lostfound:ratelimit:auth", cfg.RateLimitAuthPerMinute, time.Minute), client, nil
}
