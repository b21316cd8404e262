// Package queue stores deferred notification deliveries as durable batch rows.
//
// A batch is one row holding a serialized list of Entry values: recipient ids,
// the notice type label, extra context, the on-site flag and an optional
// sender id. Recipients and senders are stored as ids, never as loaded users,
// since a batch may be drained long after it was written.
//
// Payloads use an explicit versioned JSON schema (see Encode). Decoding an
// unknown version fails with ErrUnsupportedVersion; anything that is not a
// valid payload fails with ErrMalformedPayload.
//
// # Storage
//
// Repository is implemented by MemoryStorage (tests and local runs),
// RedisStorage (go-redis) and the Postgres store in
// pkg/notification/pgstore. All of them return batches oldest first.
//
//	repo := queue.NewMemoryStorage()
//	enq, _ := queue.NewEnqueuer(repo)
//	_, err := enq.Enqueue(ctx, queue.Entry{
//	    Recipients: []int64{1, 2, 3},
//	    Label:      "comment_reply",
//	    Context:    map[string]any{"comment_id": 42},
//	})
package queue
