package ui

import (
	"net/http"

	uderia "github.com/rgeissen/uderia-sub002"
	"github.com/rgeissen/uderia-sub002/ui/api"
	"github.com/rgeissen/uderia-sub002/ui/frontend"
	"github.com/rgeissen/uderia-sub002/ui/service"
)

// Handler returns an http.Handler serving the SSR frontend at the root
// and the JSON API under /api/.
//
// Usage:
//
//	http.Handle("/", ui.Handler(client, cfg))
//	http.Handle("/ui/", http.StripPrefix("/ui", ui.Handler(client, cfg)))
func Handler(client *uderia.Client, cfg *Config) http.Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.applyDefaults()
	}

	// Validate configuration (panic on invalid config as this is a programmer error)
	if err := cfg.validate(); err != nil {
		panic("ui: invalid configuration: " + err.Error())
	}

	svc := service.New(client)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.NewRouter(svc, &api.Config{
		ReadOnly: cfg.ReadOnly,
		PageSize: cfg.PageSize,
		Logger:   cfg.Logger,
	})))
	mux.Handle("/", frontend.NewRouter(svc, &frontend.Config{
		BasePath:        cfg.BasePath,
		ReadOnly:        cfg.ReadOnly,
		PageSize:        cfg.PageSize,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          cfg.Logger,
	}))

	return mux
}
