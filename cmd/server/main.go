package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mediatrack/internal/ai"
	"mediatrack/internal/auth"
	authbiz "mediatrack/internal/auth/biz"
	authdata "mediatrack/internal/auth/data"
	authservice "mediatrack/internal/auth/service"
	colbiz "mediatrack/internal/collection/biz"
	coldata "mediatrack/internal/collection/data"
	colservice "mediatrack/internal/collection/service"
	"mediatrack/internal/conf"
	"mediatrack/internal/enrich"
	enrichservice "mediatrack/internal/enrich/service"
	"mediatrack/internal/pkg/database"
	"mediatrack/internal/pkg/hostrpc"
	"mediatrack/internal/pkg/logger"
	"mediatrack/internal/pkg/rategate"
	"mediatrack/internal/pkg/redis"
	"mediatrack/internal/search"
	"mediatrack/internal/server"
)

var configFile = flag.String("config", "configs/config.yaml", "config file path")

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded", zap.String("file", *configFile))

	db, err := database.New(&config.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(&authdata.AccountPO{}, &coldata.ItemPO{}); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	// Search cache: in-process by default, Redis when shared across
	// instances.
	var searchCache search.Cache = search.NewMemoryCache()
	if config.Search.CacheStore == "redis" {
		redisClient, err := redis.New(&config.Redis, log)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		searchCache = search.NewRedisCache(redisClient.Client)
	}

	// An embedding shell registers its invoker through hostrpc.SetDefault
	// before this runs; host mode then delegates AI and search calls to it.
	routerOpts := []search.RouterOption{search.WithCache(searchCache)}
	if config.AI.HostMode {
		if hostrpc.Default() == nil {
			log.Fatal("ai.host_mode is set but no host invoker is registered")
		}
		routerOpts = append(routerOpts, search.WithHostInvoker(hostrpc.Default()))
	}
	searchRouter := search.NewRouter(log.Logger.Named("search"), routerOpts...)

	gate, err := rategate.New(ai.DefaultGateCapacity)
	if err != nil {
		log.Fatal("failed to create rate gate", zap.Error(err))
	}
	transport, err := ai.SelectTransport(config.AI.HostMode, hostrpc.Default(), nil)
	if err != nil {
		log.Fatal("failed to select chat transport", zap.Error(err))
	}
	caller := ai.NewCaller(transport, gate, log.Logger.Named("ai"))

	engine := enrich.NewEngine(caller, searchRouter, log.Logger.Named("conversation"))
	omdb := enrich.NewOMDb("", nil, log.Logger.Named("omdb"))
	covers := enrich.NewMetadataChain(log.Logger.Named("covers"),
		enrich.NewDouban(nil, log.Logger.Named("douban")),
		enrich.NewWikipedia("", nil, log.Logger.Named("wikipedia")),
		enrich.NewBangumi("", config.Enrich.BangumiToken, nil, log.Logger.Named("bangumi")),
	)
	resolver, err := enrich.NewResolver(searchRouter, omdb, log.Logger.Named("posters"),
		enrich.WithFallbackMetadata(covers))
	if err != nil {
		log.Fatal("failed to create poster resolver", zap.Error(err))
	}
	defer resolver.Close()

	pipeline := enrich.NewService(engine, resolver, log.Logger.Named("enrich"))

	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)

	accountRepo := authdata.NewAccountRepo(db)
	authUseCase := authbiz.NewAuthUseCase(accountRepo, jwtManager)
	authSvc := authservice.NewAuthService(authUseCase, log.Named("auth"))

	itemRepo := coldata.NewItemRepo(db)
	collectionUseCase := colbiz.NewCollectionUseCase(itemRepo)
	collectionSvc := colservice.NewCollectionService(collectionUseCase, log.Named("collection"))

	enrichSvc := enrichservice.NewEnrichService(pipeline, searchRouter, collectionUseCase, config, log.Named("enrich"))

	httpServer := server.NewHTTPServer(config, log, jwtManager, authSvc, collectionSvc, enrichSvc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Stop(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
