package dbusx

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Subscription is a scoped signal-stream resource: it owns one channel of
// matched signals and releases the match rule and channel when Close is
// called, whether the caller reached a terminal transition, a timeout, or
// cancelled (spec §3.3 "State-Wait subscriptions are scoped resources").
type Subscription struct {
	conn *Conn
	ch   chan *dbus.Signal
	opts []dbus.MatchOption
	once sync.Once
}

// Signals returns the channel of signals matched by this subscription.
func (s *Subscription) Signals() <-chan *dbus.Signal { return s.ch }

// Close releases the match rule and the channel. Idempotent.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		_ = s.conn.raw.RemoveMatchSignal(s.opts...)
		s.conn.raw.RemoveSignal(s.ch)
		close(s.ch)
	})
}

// SubscribeSignal subscribes to signals from one object path and
// interface, optionally filtered to a single member. The subscription
// MUST be established before any "current state" read whose value
// matters to the caller's decision — this ordering is the invariant that
// eliminates missed-edge races (spec §4.4, §5).
func (c *Conn) SubscribeSignal(ctx context.Context, path dbus.ObjectPath, iface, member string) (*Subscription, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
	}
	if member != "" {
		opts = append(opts, dbus.WithMatchMember(member))
	}
	if err := c.raw.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, err
	}
	ch := make(chan *dbus.Signal, 16)
	c.raw.Signal(ch)
	return &Subscription{conn: c, ch: ch, opts: opts}, nil
}

// SubscribeRule subscribes using an arbitrary raw match rule string, for
// signals the typed helper above cannot express (e.g. NameOwnerChanged on
// org.freedesktop.DBus, or ObjectManager InterfacesAdded/Removed).
func (c *Conn) SubscribeRule(ctx context.Context, rule string) (*Subscription, error) {
	if err := c.raw.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, err
	}
	ch := make(chan *dbus.Signal, 16)
	c.raw.Signal(ch)
	return &Subscription{conn: c, ch: ch}, nil
}

// Close on a rule-based subscription only tears down the channel; removing
// a raw AddMatch rule symmetrically requires the identical rule string, so
// callers of SubscribeRule that need removal should track it themselves.
