package main

import (
	"github.com/vango-dev/defo/internal/config"
	"github.com/vango-dev/defo/pkg/observer"
	"github.com/vango-dev/defo/pkg/observers/standard"
)

// views returns the built-in observers selected by cfg.
func views(cfg *config.Config) (map[observer.Name]observer.Factory, error) {
	return cfg.SelectViews(standard.Views())
}

// registry builds the registry for the selected views.
func registry(cfg *config.Config) (*observer.Registry, error) {
	v, err := views(cfg)
	if err != nil {
		return nil, err
	}
	return observer.NewRegistry(v)
}
