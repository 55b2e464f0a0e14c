// provider-check probes the configured search provider with a real query
// and reports latency and result count, so credential problems surface
// before they degrade enrichment quality in production.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"mediatrack/internal/conf"
	"mediatrack/internal/search"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "config file path")
	provider   = flag.String("provider", "", "override the configured provider (google, serper, duckduckgo, yandex)")
	timeout    = flag.Duration("timeout", 15*time.Second, "probe timeout")
)

func main() {
	flag.Parse()

	cfg, err := conf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()

	searchCfg := cfg.SearchSettings()
	if *provider != "" {
		searchCfg.Provider = search.ProviderID(*provider)
	}

	router := search.NewRouter(zapLogger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("probing provider %q...\n", searchCfg.Provider)
	probe := router.Test(ctx, searchCfg)

	if !probe.OK {
		fmt.Printf("FAIL  provider=%s error=%s\n", probe.Provider, probe.Error)
		os.Exit(1)
	}
	fmt.Printf("OK    provider=%s latency=%dms results=%d\n", probe.Provider, probe.LatencyMS, probe.Count)
}
