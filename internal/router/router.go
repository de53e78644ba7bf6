package router

import (
	"context"
	"fmt"

	"github.com/anonto42/pulse/backend/internal/handlers"
	"github.com/anonto42/pulse/backend/internal/middleware"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/anonto42/pulse/backend/internal/storage"
	"github.com/anonto42/pulse/backend/pkg/config"
	"github.com/anonto42/pulse/backend/pkg/firebase"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies are the external resources the application is built from.
// Mongo, Redis and Firebase are optional.
type Dependencies struct {
	Config   *config.Config
	Postgres *gorm.DB
	Mongo    *mongo.Client
	Redis    *redis.Client
	Firebase *firebase.App
	Log      *logrus.Logger
	Clock    services.Clock
}

// App holds the wired services.
type App struct {
	Accounts      *services.AccountService
	Relationships *services.RelationshipService
	Engagement    *services.EngagementService
	Posts         *services.PostService
	Feed          *services.FeedService
	Publisher     *services.Publisher
	Tokens        *services.TokenService
	Pager         handlers.Paginator
}

// Build migrates the PostgreSQL schema, picks the configured stores and
// wires the services.
func Build(ctx context.Context, deps Dependencies) (*App, error) {
	cfg := deps.Config
	log := deps.Log

	if err := deps.Postgres.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed for all models.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)

	var postRepo repositories.PostRepository
	switch cfg.PostStore {
	case config.PostStoreMongo:
		if deps.Mongo == nil {
			return nil, fmt.Errorf("post store %q requires a MongoDB connection", cfg.PostStore)
		}
		mongoRepo := repositories.NewMongoPostRepository(deps.Mongo.Database(cfg.MongoDatabase))
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure post indexes: %w", err)
		}
		postRepo = mongoRepo
	case config.PostStorePostgres:
		postRepo = repositories.NewPostgresPostRepository(deps.Postgres)
	default:
		return nil, fmt.Errorf("unknown post store %q", cfg.PostStore)
	}
	log.WithField("store", cfg.PostStore).Info("Post store configured.")

	var tokenRepo repositories.TokenRepository = repositories.NewPostgresTokenRepository(deps.Postgres)
	if deps.Redis != nil {
		tokenRepo = repositories.NewRedisTokenRepository(deps.Redis)
		log.Info("Revoked tokens are kept in Redis.")
	}

	var images storage.ImageStore = storage.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL)
	var verifier services.IDTokenVerifier
	if deps.Firebase != nil {
		verifier = deps.Firebase.AuthClient
		if deps.Firebase.Bucket != nil {
			images = storage.NewBucketImageStore(deps.Firebase.Bucket, deps.Firebase.BucketName)
			log.WithField("bucket", deps.Firebase.BucketName).Info("Images are uploaded to Firebase storage.")
		}
	}

	sentinel, err := services.NewSentinelReassigner(ctx, userRepo, postRepo, commentRepo, log)
	if err != nil {
		return nil, err
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, tokenRepo, userRepo)
	tx := repositories.NewGormTransactor(deps.Postgres)
	engagement := services.NewEngagementService(postRepo, commentRepo, userRepo, cfg.DefaultPageSize, deps.Clock)

	return &App{
		Accounts: services.NewAccountService(services.AccountDeps{
			Users:      userRepo,
			Follows:    followRepo,
			Posts:      postRepo,
			Tokens:     tokens,
			Reassigner: sentinel,
			Tx:         tx,
			Images:     images,
			Firebase:   verifier,
			BcryptCost: cfg.BcryptCost,
			Log:        log,
		}),
		Relationships: services.NewRelationshipService(userRepo, followRepo),
		Engagement:    engagement,
		Posts:         services.NewPostService(postRepo, commentRepo, userRepo, images, engagement, tx, deps.Clock, log),
		Feed:          services.NewFeedService(postRepo, followRepo, userRepo),
		Publisher:     services.NewPublisher(postRepo, tokens, deps.Clock, log),
		Tokens:        tokens,
		Pager:         handlers.Paginator{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize},
	}, nil
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, app *App, log logrus.FieldLogger) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(app.Tokens))
	log.Info("JWT authentication middleware applied to /api/v1 group.")

	authHandler := handlers.NewAuthHandler(app.Accounts)
	authHandler.RegisterAuthRoutes(api.Group("/auth"))
	log.Info("Auth routes configured.")

	userHandler := handlers.NewUserHandler(app.Accounts, app.Pager)
	userHandler.RegisterProfileRoutes(api)
	log.Info("User profile routes configured.")

	followHandler := handlers.NewFollowHandler(app.Relationships)
	followHandler.RegisterFollowRoutes(api)
	log.Info("Follow routes configured.")

	feedHandler := handlers.NewFeedHandler(app.Feed, app.Pager)
	feedHandler.RegisterFeedRoutes(api)
	log.Info("Feed routes configured.")

	postHandler := handlers.NewPostHandler(app.Posts)
	postHandler.RegisterPostRoutes(api)
	log.Info("Post routes configured.")

	likeHandler := handlers.NewLikeHandler(app.Engagement)
	likeHandler.RegisterLikeRoutes(api)
	log.Info("Like routes configured.")

	commentHandler := handlers.NewCommentHandler(app.Engagement, app.Pager)
	commentHandler.RegisterCommentRoutes(api)
	log.Info("Comment routes configured.")

	log.Info("All routes configured.")
}
