/*
Copyright © 2025 Polytran Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/polytran/polytran/internal/config"
	"github.com/polytran/polytran/internal/consensus"
	"github.com/polytran/polytran/internal/health"
	"github.com/polytran/polytran/internal/keypool"
	"github.com/polytran/polytran/internal/metrics"
	"github.com/polytran/polytran/internal/orchestrator"
	"github.com/polytran/polytran/internal/provider"
	"github.com/polytran/polytran/internal/store"
	"github.com/polytran/polytran/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
)

// engineBundle holds the assembled engine plus the pieces commands need to
// close or serve after use.
type engineBundle struct {
	engine   *orchestrator.Engine
	cfg      *config.Config
	db       *store.Store
	registry *prometheus.Registry
}

// buildEngine assembles the full engine from a configuration file: the
// provider registry, health tracker, key pools, consensus builder, and the
// optional store, metrics, and validator.
func buildEngine(configPath string, withStore, withValidator bool) (*engineBundle, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	registry, err := provider.NewRegistry(cfg.Descriptors())
	if err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	tracker := health.NewTracker(registry.IDs())

	pools := make(map[string]*keypool.Pool)
	keys := make(map[string]string)
	for _, p := range cfg.Providers {
		if len(p.APIKeys) > 0 {
			pools[p.ID] = keypool.New(p.APIKeys, p.KeyNames)
		} else {
			keys[p.ID] = p.APIKey
		}
	}

	var embedder consensus.Embedder
	if cfg.Embeddings.Endpoint != "" {
		embedder = consensus.NewHTTPEmbedder(cfg.Embeddings.Endpoint, cfg.Embeddings.APIKey, cfg.Embeddings.Model)
	}
	builder := consensus.NewBuilder(embedder)

	var db *store.Store
	if withStore && cfg.DBPath != "" {
		db, err = store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	var v *validator.Validator
	if withValidator {
		v = validator.New()
	}

	promRegistry := prometheus.NewRegistry()

	engine := orchestrator.New(orchestrator.Config{
		Registry:    registry,
		Tracker:     tracker,
		Client:      provider.NewClient(cfg.CallTimeout),
		Pools:       pools,
		Keys:        keys,
		Builder:     builder,
		Validator:   v,
		Store:       db,
		Metrics:     metrics.New(promRegistry),
		Priority:    cfg.Priority,
		CallTimeout: cfg.CallTimeout,
	})

	return &engineBundle{
		engine:   engine,
		cfg:      cfg,
		db:       db,
		registry: promRegistry,
	}, nil
}

func (b *engineBundle) close() {
	if b.db != nil {
		b.db.Close()
	}
}
