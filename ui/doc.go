// Package ui provides the embedded web front end for a uderia client.
//
// The package exposes a single http.Handler that mounts the SSR frontend
// at the root and a JSON API under /api/:
//
//	client, _ := uderia.New(uderia.Config{Store: st, EventsURL: feed})
//	_ = client.Start(ctx)
//
//	mux := http.NewServeMux()
//	mux.Handle("/", ui.Handler(client, nil))
//
//	http.ListenAndServe(":8080", mux)
//
// The frontend renders the client's current foreground view and the
// session list, and drives session switching; it refreshes by polling
// the view fragment. The JSON API serves the same view state for
// programmatic consumers.
//
// # Framework Integration
//
// The handler returns a standard http.Handler, compatible with any Go
// framework:
//
//	// Standard library, mounted under a prefix
//	http.Handle("/ui/", http.StripPrefix("/ui", ui.Handler(client, cfg)))
//
//	// Chi
//	r.Mount("/ui", ui.Handler(client, cfg))
//
// Middleware wraps externally using standard patterns:
//
//	http.Handle("/", authMiddleware(ui.Handler(client, cfg)))
package ui
