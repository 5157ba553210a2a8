// Package uderia provides the session multiplexing client for the Uderia
// conversational agent front end.
//
// A user keeps many concurrent sessions open against the Uderia backend;
// each session may have a live task streaming progress events at any
// moment, and the front end renders exactly one session at a time. This
// package owns the hard part of that arrangement: switching the rendered
// session without losing a single event, flag, or counter from any of the
// others.
//
// # Architecture
//
//   - stream: the live event model and its routing classification
//   - viewstate: the foreground view model, execution flags, and the
//     versioned snapshot schema
//   - mux: the multiplexer itself (dispatcher, buffer registry,
//     snapshot cache, and the session switch controller)
//   - store: the session store collaborator (REST and PostgreSQL)
//   - transport: the live event feeds (SSE and Postgres LISTEN/NOTIFY)
//   - ui: the embedded web front end
//
// # Quick Start
//
// Create a client against a backend and start the event feed:
//
//	st, _ := store.NewRESTStore("https://backend.example.com/api", nil)
//	client, err := uderia.New(
//	    uderia.Config{
//	        Store:     st,
//	        EventsURL: "https://backend.example.com/api/events",
//	    },
//	    uderia.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = client.Start(ctx)
//	defer client.Stop(ctx)
//
// Switch the rendered session; the controller decides between an instant
// snapshot restore, a buffered-event replay, and a cold load from the
// store:
//
//	if err := client.SwitchSession(ctx, sessionID); err != nil {
//	    // the view already shows the failure inline
//	}
//	view := client.View()
//
// Sessions that stream while not rendered keep accumulating in per-session
// buffers; returning to one catches the view up as if it had been watched
// the whole time.
package uderia
