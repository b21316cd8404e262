// Package notification delivers notices to users over configured media.
//
// A notice type, identified by its label, is delivered through every Medium in
// the Registry. Each medium has a Backend and a spam sensitivity; a user's
// Setting for (notice type, medium) decides whether the backend sends, and
// defaults to sensitivity <= notice type default on first access.
//
// Dispatcher.SendNow is the synchronous path: it checks view permission on
// the context target, claims the notice uid, runs the extension hooks and
// hands the notice to each backend under a per-recipient language and time
// zone. Service wraps it with queueing (see pkg/queue), observation fan-out,
// the settings table and signed unsubscribe codes.
//
//	svc := notification.NewService(dispatcher, store, resolver,
//	    notification.WithEnqueuer(enq),
//	    notification.WithQueueAll(cfg.QueueAll),
//	)
//	counts, err := svc.Send(ctx, users, "comment_reply", notification.Context{
//	    notification.KeyContextObject: notification.Target{Type: "post", ID: "42"},
//	})
//
// MemoryStore implements Store for tests; pkg/notification/pgstore is the
// Postgres implementation.
package notification
