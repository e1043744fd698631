/*
Package bookclub is the signup desk of a small reading club: a paged form that
reads like flipping through a book, and the operator dashboard that reviews
the candidates it collects.

# Layout

The domain lives under pkg and stays free of transports:

  - pkg/book lays out the page stack (which pages are flipped, in what order
    they stack) from the page count and the current page.
  - pkg/flow holds the form state machine, phone formatting, the step script
    and the session-backed Service that drives a form across requests.
  - pkg/admin signs the operator in and lists, deletes, exports and shares
    candidates.
  - pkg/ports names the collaborators (record store, authenticator, state
    store, notifier, lock) and pkg/adapters implements them on memory, files,
    Redis, PostgREST, Firebase, Telegram and NATS. The HTTP and MCP surfaces
    are adapters too.

# Usage

The bookclub command wires everything from configuration:

	bookclub serve --addr :8080 --record-store postgrest
	bookclub run --session ana
	bookclub candidates export > candidatos.csv

Embedding the flow in another program only needs a state store and an
inserter:

	svc, err := flow.NewService(flow.DefaultScript(), session.NewManager(memory.NewStore()), records)
	if err != nil {
		log.Fatal(err)
	}
	view, err := svc.Start(ctx, "reader-1")
*/
package bookclub
