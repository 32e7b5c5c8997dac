package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Omarrawas/Atmetny1/handlers"
	"github.com/Omarrawas/Atmetny1/internal/activation"
	"github.com/Omarrawas/Atmetny1/internal/analysis"
	"github.com/Omarrawas/Atmetny1/internal/cache"
	"github.com/Omarrawas/Atmetny1/internal/catalog"
	"github.com/Omarrawas/Atmetny1/internal/config"
	"github.com/Omarrawas/Atmetny1/internal/content"
	"github.com/Omarrawas/Atmetny1/internal/database"
	"github.com/Omarrawas/Atmetny1/internal/exams"
	"github.com/Omarrawas/Atmetny1/internal/oidc"
	"github.com/Omarrawas/Atmetny1/internal/sessions"
	"github.com/Omarrawas/Atmetny1/internal/storage"
	"github.com/Omarrawas/Atmetny1/internal/tokens"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/Omarrawas/Atmetny1/pkg/metrics"
	"github.com/Omarrawas/Atmetny1/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// stores holds the repositories behind every service, Mongo-backed when a
// database is available and in-memory otherwise.
type stores struct {
	users      users.Repository
	sessions   sessions.Repository
	activation activation.Store
	catalog    catalog.Repository
	exams      exams.Repository
	content    content.Repository
	analysis   analysis.Repository
}

func mongoStores(client *mongo.Client, db *mongo.Database) stores {
	return stores{
		users:      users.NewMongoRepository(db.Collection(database.UsersCollection)),
		sessions:   sessions.NewMongoRepository(db.Collection(database.SessionsCollection)),
		activation: activation.NewMongoStore(client, db),
		catalog:    catalog.NewMongoRepository(db),
		exams:      exams.NewMongoRepository(db),
		content:    content.NewMongoRepository(db),
		analysis:   analysis.NewMongoRepository(db),
	}
}

func memoryStores() stores {
	u := users.NewMemoryRepository()
	return stores{
		users:      u,
		sessions:   sessions.NewMemoryRepository(),
		activation: activation.NewMemoryStore(u),
		catalog:    catalog.NewMemoryRepository(),
		exams:      exams.NewMemoryRepository(),
		content:    content.NewMemoryRepository(),
		analysis:   analysis.NewMemoryRepository(),
	}
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Host == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
		_ = rc.Close()
		return nil
	}
	logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
	return rc
}

// verifiers builds the access token chain and the ID token verifier used at
// login. Locally minted tokens are tried first.
func verifiers(ctx context.Context, cfg *config.Config) (access middleware.Chain, idToken middleware.Verifier) {
	if cfg.JWT.Secret != "" {
		access = append(access, tokens.NewVerifier(cfg))
	}
	if issuer := cfg.Keycloak.Issuer(); issuer != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			access = append(access, ver)
			idToken = ver
		}
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		ins := oidc.NewInsecureVerifier()
		access = append(access, ins)
		if idToken == nil {
			idToken = ins
		}
	}
	if idToken == nil {
		idToken = middleware.Chain{}
	}
	return access, idToken
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Retry-After")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v openai=%v",
		cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "", cfg.OpenAI.APIKey != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	rdb := connectRedis(ctx, cfg)

	limit := func(scope string) gin.HandlerFunc {
		if !cfg.RateLimit.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			return middleware.RedisRateLimitMiddleware(rdb, scope, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		}
		return middleware.RateLimitMiddleware(scope, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	r.Use(limit("global"))

	st := memoryStores()
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Warnf("could not connect to MongoDB, using in-memory stores: %v", err)
		} else {
			mongoClient = client
			db := client.Database(cfg.MongoDB.Database)
			if err := database.EnsureIndexes(ctx, db); err != nil {
				logger.Warnf("ensure indexes: %v", err)
			}
			st = mongoStores(client, db)
		}
	}
	if rdb != nil {
		st.sessions = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("using Redis for session storage")
	}

	var files catalog.FileSigner
	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("lesson files will not be signed: %v", err)
		} else {
			files = s
		}
	}

	var llm analysis.Completer
	if oc, err := analysis.NewClient(cfg.OpenAI); err != nil {
		logger.Warnf("AI analysis disabled: %v", err)
	} else {
		llm = oc
	}

	kv := cache.New(rdb, "atmetny:", cfg.Cache.TTL)
	usersSvc := users.NewService(st.users)
	sessionsSvc := sessions.NewService(st.sessions)
	catalogSvc := catalog.NewService(st.catalog, kv, files)
	examsSvc := exams.NewService(st.exams, catalogSvc, usersSvc)
	catalogSvc.UseExams(examsSvc)
	contentSvc := content.NewService(st.content, kv)
	analysisSvc := analysis.NewService(st.analysis, llm, examsSvc, catalogSvc, analysis.Options{Model: cfg.OpenAI.Model, Persona: cfg.OpenAI.Persona})
	activationSvc := activation.NewService(st.activation)

	access, idToken := verifiers(ctx, cfg)
	var revoker middleware.Revoker
	var blacklist handlers.TokenRevoker
	if rdb != nil {
		bl := sessions.NewBlacklist(rdb)
		revoker, blacklist = bl, bl
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongo":    cfg.MongoDB.URI == "" || mongoClient != nil,
			"redis":    cfg.Redis.Host == "" || rdb != nil,
			"verifier": len(access) > 0,
		}
		if mongoClient != nil {
			pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			deps["mongo"] = mongoClient.Ping(pctx, nil) == nil
			cancel()
		}
		status, code := "ready", http.StatusOK
		for _, ok := range deps {
			if !ok {
				status, code = "not_ready", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.NewAuthHandler(cfg, usersSvc, sessionsSvc, idToken, blacklist).Register(r.Group("/", limit("auth")))
	handlers.RegisterSwagger(r)

	public := r.Group("/api/v1", middleware.OptionalAuth(access, revoker))
	authed := r.Group("/api/v1", middleware.AuthMiddleware(access, revoker))
	handlers.NewProfileHandler(usersSvc).Register(authed)
	handlers.NewActivationHandler(activationSvc, usersSvc).Register(authed.Group("", limit("activation")))
	handlers.NewExamsHandler(examsSvc).Register(public, authed)
	handlers.NewCatalogHandler(catalogSvc, usersSvc).Register(public)
	handlers.NewContentHandler(contentSvc).Register(public)
	handlers.NewAnalysisHandler(analysisSvc).Register(authed.Group("", limit("analysis")))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting atmetny API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(sctx)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
