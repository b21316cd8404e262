package notification

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Delivery describes one recipient's pending notice as seen by hooks.
type Delivery struct {
	Recipient  User
	Label      string
	NoticeType NoticeType
	Context    Context
	Sender     *User
}

// Extension is anything registered with Hooks. It implements one or more of
// ShouldDeliverHook, ConfigureHook and DeliveredHook.
type Extension interface {
	Name() string
}

// ShouldDeliverHook may veto a delivery. Any false result skips the recipient.
type ShouldDeliverHook interface {
	ShouldDeliver(ctx context.Context, d Delivery) bool
}

// ConfigureHook contributes a configuration fragment. The bool reports
// whether the fragment applies.
type ConfigureHook interface {
	Configure(ctx context.Context, d Delivery) (ConfigFragment, bool)
}

// DeliveredHook is told about each successful backend delivery. Errors are
// logged and ignored.
type DeliveredHook interface {
	OnDelivered(ctx context.Context, d Delivery, mediumID, backendLabel string) error
}

// ConfigFragment is a partial delivery configuration. Nil fields leave the
// value unchanged. Fragments merge in ascending Order; equal orders keep
// registration order.
type ConfigFragment struct {
	Order    int
	Language *string
	Location *time.Location
	Send     *bool
}

// DeliveryConfig is the merged configuration for one recipient.
type DeliveryConfig struct {
	Language string
	Location *time.Location
	Send     bool
}

// Merge folds fragments over base in ascending Order.
func Merge(base DeliveryConfig, fragments []ConfigFragment) DeliveryConfig {
	sorted := slices.Clone(fragments)
	slices.SortStableFunc(sorted, func(a, b ConfigFragment) int { return cmp.Compare(a.Order, b.Order) })
	for _, f := range sorted {
		if f.Language != nil {
			base.Language = *f.Language
		}
		if f.Location != nil {
			base.Location = f.Location
		}
		if f.Send != nil {
			base.Send = *f.Send
		}
	}
	return base
}

type shouldDeliverEntry struct {
	name string
	hook ShouldDeliverHook
}

type configureEntry struct {
	name string
	hook ConfigureHook
}

type deliveredEntry struct {
	name string
	hook DeliveredHook
}

// Hooks holds registered extensions, cached per hook type at registration.
// Register everything before the first delivery; Hooks is not safe for
// registration concurrent with emits.
type Hooks struct {
	logger        *slog.Logger
	shouldDeliver []shouldDeliverEntry
	configure     []configureEntry
	delivered     []deliveredEntry
}

// NewHooks creates an empty hook registry.
func NewHooks(l *slog.Logger) *Hooks {
	if l == nil {
		l = slog.Default()
	}
	return &Hooks{logger: l}
}

// Register adds e to every hook list it implements, in registration order.
func (h *Hooks) Register(exts ...Extension) {
	for _, e := range exts {
		name := e.Name()
		if x, ok := e.(ShouldDeliverHook); ok {
			h.shouldDeliver = append(h.shouldDeliver, shouldDeliverEntry{name, x})
		}
		if x, ok := e.(ConfigureHook); ok {
			h.configure = append(h.configure, configureEntry{name, x})
		}
		if x, ok := e.(DeliveredHook); ok {
			h.delivered = append(h.delivered, deliveredEntry{name, x})
		}
	}
}

// ShouldDeliver runs every veto hook; all must agree.
func (h *Hooks) ShouldDeliver(ctx context.Context, d Delivery) bool {
	for _, e := range h.shouldDeliver {
		if !e.hook.ShouldDeliver(ctx, d) {
			h.logger.DebugContext(ctx, "delivery vetoed",
				slog.String("hook", e.name),
				logger.UserID(d.Recipient.ID),
				logger.NoticeType(d.Label),
			)
			return false
		}
	}
	return true
}

// Configure collects fragments from every configure hook.
func (h *Hooks) Configure(ctx context.Context, d Delivery) []ConfigFragment {
	var out []ConfigFragment
	for _, e := range h.configure {
		if f, ok := e.hook.Configure(ctx, d); ok {
			out = append(out, f)
		}
	}
	return out
}

// Delivered notifies every delivered hook.
func (h *Hooks) Delivered(ctx context.Context, d Delivery, mediumID, backendLabel string) {
	for _, e := range h.delivered {
		if err := e.hook.OnDelivered(ctx, d, mediumID, backendLabel); err != nil {
			h.logger.DebugContext(ctx, "delivered hook failed",
				slog.String("hook", e.name),
				logger.Backend(backendLabel),
				logger.Error(err),
			)
		}
	}
}

// Func adapters for registering plain functions.

// ShouldDeliverFunc adapts a function to ShouldDeliverHook.
type ShouldDeliverFunc struct {
	ID string
	Fn func(ctx context.Context, d Delivery) bool
}

func (f ShouldDeliverFunc) Name() string { return f.ID }
func (f ShouldDeliverFunc) ShouldDeliver(ctx context.Context, d Delivery) bool {
	return f.Fn(ctx, d)
}

// ConfigureFunc adapts a function to ConfigureHook.
type ConfigureFunc struct {
	ID string
	Fn func(ctx context.Context, d Delivery) (ConfigFragment, bool)
}

func (f ConfigureFunc) Name() string { return f.ID }
func (f ConfigureFunc) Configure(ctx context.Context, d Delivery) (ConfigFragment, bool) {
	return f.Fn(ctx, d)
}

// DeliveredFunc adapts a function to DeliveredHook.
type DeliveredFunc struct {
	ID string
	Fn func(ctx context.Context, d Delivery, mediumID, backendLabel string) error
}

func (f DeliveredFunc) Name() string { return f.ID }
func (f DeliveredFunc) OnDelivered(ctx context.Context, d Delivery, mediumID, backendLabel string) error {
	return f.Fn(ctx, d, mediumID, backendLabel)
}
