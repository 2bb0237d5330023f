package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openalpha/creditpool/offchain/liquidator"
)

// Config holds the application configuration
type Config struct {
	PollInterval  time.Duration `json:"poll_interval"`
	BatchInterval time.Duration `json:"batch_interval"`
	BatchSize     int           `json:"batch_size"`
	APIURL        string        `json:"api_url"`
	ChainRPCURL   string        `json:"chain_rpc_url"`
	Liquidator    string        `json:"liquidator"`
	SubmitterType string        `json:"submitter_type"` // "mock" or "batch"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:  2 * time.Second,
		BatchInterval: time.Second,
		BatchSize:     50,
		APIURL:        "http://localhost:8080",
		ChainRPCURL:   "http://localhost:26657",
		SubmitterType: "mock",
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	pollInterval := flag.Duration("poll-interval", 0, "Position scan interval")
	batchInterval := flag.Duration("batch-interval", 0, "Time interval for batch submission")
	batchSize := flag.Int("batch-size", 0, "Maximum liquidations per batch")
	apiURL := flag.String("api", "", "Gateway API URL")
	rpcURL := flag.String("rpc", "", "Chain RPC URL")
	liquidatorAddr := flag.String("liquidator", "", "Liquidator account address")
	submitterType := flag.String("submitter", "", "Submitter type (mock or batch)")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *pollInterval > 0 {
		config.PollInterval = *pollInterval
	}
	if *batchInterval > 0 {
		config.BatchInterval = *batchInterval
	}
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	if *apiURL != "" {
		config.APIURL = *apiURL
	}
	if *rpcURL != "" {
		config.ChainRPCURL = *rpcURL
	}
	if *liquidatorAddr != "" {
		config.Liquidator = *liquidatorAddr
	}
	if *submitterType != "" {
		config.SubmitterType = *submitterType
	}

	log.Println("=== CreditPool Liquidation Keeper ===")
	log.Printf("Poll Interval: %v", config.PollInterval)
	log.Printf("Batch Interval: %v", config.BatchInterval)
	log.Printf("Batch Size: %d", config.BatchSize)
	log.Printf("API: %s", config.APIURL)
	log.Printf("Chain RPC: %s", config.ChainRPCURL)
	log.Printf("Submitter: %s", config.SubmitterType)
	log.Println("=====================================")

	factory := liquidator.NewSubmitterFactory()
	submitter := factory.Create(config.SubmitterType, &liquidator.BatchSubmitterConfig{
		RPCURL:        config.ChainRPCURL,
		Liquidator:    config.Liquidator,
		BatchSize:     config.BatchSize,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	})

	liquidatorConfig := liquidator.DefaultConfig()
	liquidatorConfig.PollInterval = config.PollInterval
	liquidatorConfig.BatchInterval = config.BatchInterval
	liquidatorConfig.BatchSize = config.BatchSize
	liquidatorConfig.APIURL = config.APIURL
	liquidatorConfig.ChainRPCURL = config.ChainRPCURL

	source := liquidator.NewHTTPSource(config.APIURL)
	bot := liquidator.NewLiquidator(liquidatorConfig, source, submitter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bot.Start(ctx); err != nil {
		log.Fatalf("Failed to start liquidator: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	log.Println("Liquidator is running. Press Ctrl+C to stop.")

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
			cancel()
			if err := bot.Stop(); err != nil {
				log.Printf("Error stopping liquidator: %v", err)
			}
			log.Println("Liquidator stopped")
			return
		case <-statsTicker.C:
			stats := bot.GetStats()
			log.Printf("Stats: Scanned=%d, Candidates=%d, Pending=%d, Buffered=%d, Submitted=%d, Failed=%d",
				stats.PositionsScanned, stats.CandidatesTotal, stats.PendingCount,
				stats.BufferedCount, stats.TotalSubmissions, stats.FailedSubmissions)
		}
	}
}
