/*
Package event provides the pub/sub bus that connects the session store, the
sandbox watcher and the HTTP push channels.

A Bus has two delivery paths:

  - Direct subscribers (Subscribe, SubscribeAll) receive the typed Event
    value. Publish calls each subscriber in its own goroutine; PublishSync
    calls them in order on the publisher's goroutine.
  - Stream consumers receive an Envelope with the JSON-encoded payload. Every
    published event is mirrored onto a watermill GoChannel under Topic, so a
    consumer that only needs to forward bytes (the SSE endpoint) never sees
    Go types.

Session-scoped payloads carry the session id; SessionID(e) extracts it for
filtering.

The session store publishes with PublishSync, so one session's events reach
direct subscribers in mutation order. The watcher and the workers publish
asynchronously. Subscribers called through PublishSync must not block and
must not publish re-entrantly.

	bus := event.NewBus()
	defer bus.Close()

	unsub := bus.Subscribe(event.MessageAdded, func(e event.Event) {
		data := e.Data.(event.MessageAddedData)
		...
	})
	defer unsub()
*/
package event
