// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// New builds a *slog.Logger: it picks slog.NewTextHandler or
// slog.NewJSONHandler based on the configured Format and wraps it with
// LogHandlerDecorator, which runs every registered ContextExtractor before
// delegating to the underlying handler.
//
// On top of the standard slog levels the package defines LevelCritical. The
// drain engine logs at this level when a pass aborts, and handlers render it
// as "CRITICAL".
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "emit-notices"),
//	    logger.WithLevelName(os.Getenv("LOG_LEVEL")),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "emitting notice",
//	    logger.NoticeType("comment_reply"),
//	    logger.UserID(42),
//	)
//
// Attribute helpers such as Error and Errors return an empty slog.Attr for nil
// errors, so callers can pass them without a nil check.
package logger
