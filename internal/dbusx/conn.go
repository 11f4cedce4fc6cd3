// Package dbusx is the IPC Proxy Layer (spec §4, component table in §2):
// strongly-typed handles to remote objects on the system bus, property
// reads, method calls, and signal subscriptions, instrumented with
// tracing spans at the daemon RPC boundary the same way the teacher
// instruments its gRPC boundary with otelgrpc.
package dbusx

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("nmctl/dbusx")

// Conn is a logically shared handle to the system bus connection (spec
// §5 "Shared-resource policy": "mutation is via daemon calls, not local
// shared state"). Every Conn value wraps the same underlying *dbus.Conn
// and is safe for concurrent use; godbus multiplexes method-call replies
// internally.
type Conn struct {
	raw *dbus.Conn
}

// Dial connects to the system bus. There is exactly one Conn per process
// in normal operation; orchestrator, builders, and monitors all hold
// reference-equivalent copies of it (spec §9 "Shared handle semantics").
func Dial() (*Conn, error) {
	raw, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	return &Conn{raw: raw}, nil
}

// Close tears down the bus connection. Safe to call once at process
// shutdown; in-flight waits and monitor subscriptions must be cancelled
// first by the caller.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// Object returns a typed handle to a single remote object.
func (c *Conn) Object(dest string, path dbus.ObjectPath) Object {
	return Object{conn: c, dest: dest, path: path}
}

// Object is a strongly-typed handle to one remote object at a fixed
// destination and path — the unit the rest of the core programs against
// instead of raw dbus.Conn calls.
type Object struct {
	conn *Conn
	dest string
	path dbus.ObjectPath
}

func (o Object) Path() dbus.ObjectPath { return o.path }
func (o Object) Dest() string          { return o.dest }

// Call invokes a method on this object and decodes the reply into out.
// Every IPC method call is a suspension point (spec §5); context
// cancellation propagates to the underlying bus call.
func (o Object) Call(ctx context.Context, iface, member string, args []any, out ...any) error {
	ctx, span := tracer.Start(ctx, "dbus.Call "+iface+"."+member,
		trace.WithAttributes(
			attribute.String("dbus.destination", o.dest),
			attribute.String("dbus.path", string(o.path)),
			attribute.String("dbus.interface", iface),
			attribute.String("dbus.member", member),
		))
	defer span.End()

	call := o.conn.raw.Object(o.dest, o.path).CallWithContext(ctx, iface+"."+member, 0, args...)
	if call.Err != nil {
		span.SetStatus(codes.Error, call.Err.Error())
		return call.Err
	}
	if len(out) > 0 {
		if err := call.Store(out...); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

// GetProperty reads a single property via org.freedesktop.DBus.Properties.
func (o Object) GetProperty(ctx context.Context, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := o.Call(ctx, "org.freedesktop.DBus.Properties", "Get",
		[]any{iface, name}, &v)
	return v, err
}

// SetProperty writes a single property via org.freedesktop.DBus.Properties.
func (o Object) SetProperty(ctx context.Context, iface, name string, value any) error {
	return o.Call(ctx, "org.freedesktop.DBus.Properties", "Set",
		[]any{iface, name, dbus.MakeVariant(value)})
}

// GetAllProperties reads every property of an interface in one round
// trip, used by Device Discovery to avoid N+1 property reads per device.
func (o Object) GetAllProperties(ctx context.Context, iface string) (map[string]dbus.Variant, error) {
	var all map[string]dbus.Variant
	err := o.Call(ctx, "org.freedesktop.DBus.Properties", "GetAll", []any{iface}, &all)
	return all, err
}
