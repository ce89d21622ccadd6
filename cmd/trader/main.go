package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"trader/internal/broker"
	"trader/internal/config"
	"trader/internal/engine"
	"trader/internal/md"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	})
	source := md.NewAlpacaSource(dataClient)
	estimator := md.NewEstimator(source, cfg.LookbackDays)
	gateway := broker.New(cfg.APIKey, cfg.APISecret, cfg.BaseURL)
	eng := engine.New(cfg, estimator, gateway)

	log.Printf("starting trade run symbol=%s mode=%s model=%s", cfg.Symbol, cfg.Mode(), cfg.ModelPath)

	result, err := eng.Run(context.Background())
	if err != nil {
		if result.Signal != "" {
			// report partial progress before failing
			if payload, merr := json.Marshal(result); merr == nil {
				fmt.Fprintln(os.Stderr, string(payload))
			}
		}
		log.Fatalf("run failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}
