// Command catalog serves the read-only subject tree, news and announcements
// without the account, exam and analysis endpoints.
package main

import (
	"context"
	"os"

	"github.com/Omarrawas/Atmetny1/handlers"
	"github.com/Omarrawas/Atmetny1/internal/cache"
	"github.com/Omarrawas/Atmetny1/internal/catalog"
	"github.com/Omarrawas/Atmetny1/internal/config"
	"github.com/Omarrawas/Atmetny1/internal/content"
	"github.com/Omarrawas/Atmetny1/internal/database"
	"github.com/Omarrawas/Atmetny1/internal/storage"
	"github.com/Omarrawas/Atmetny1/internal/tokens"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	port := os.Getenv("CATALOG_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	r := gin.New()
	r.Use(gin.Recovery())

	var (
		catalogRepo catalog.Repository = catalog.NewMemoryRepository()
		contentRepo content.Repository = content.NewMemoryRepository()
		usersRepo   users.Repository   = users.NewMemoryRepository()
	)
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v), serving an empty catalog", err)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			catalogRepo = catalog.NewMongoRepository(db)
			contentRepo = content.NewMongoRepository(db)
			usersRepo = users.NewMongoRepository(db.Collection(database.UsersCollection))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	}
	kv := cache.New(rdb, "atmetny:", cfg.Cache.TTL)

	var files catalog.FileSigner
	if cfg.MinIO.Endpoint != "" {
		if s, err := storage.NewMinIOStorage(ctx, cfg.MinIO); err != nil {
			logger.Warnf("lesson files will not be signed: %v", err)
		} else {
			files = s
		}
	}

	// Without a JWT secret every caller is anonymous and only free lessons open.
	var ver middleware.Chain
	if cfg.JWT.Secret != "" {
		ver = append(ver, tokens.NewVerifier(cfg))
	}
	api := r.Group("/api/v1", middleware.OptionalAuth(ver, nil))
	handlers.NewCatalogHandler(catalog.NewService(catalogRepo, kv, files), users.NewService(usersRepo)).Register(api)
	handlers.NewContentHandler(content.NewService(contentRepo, kv)).Register(api)

	logger.Infof("catalog service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
