package nm_test

import (
	"context"
	"testing"
	"time"

	"nmctl/internal/nm"
	"nmctl/internal/nmfake"
)

// TestWaitConnectionActivationSubscriptionFirst exercises the
// subscription-first invariant: the terminal signal is pushed the
// instant the subscription exists, before WaitConnectionActivation has a
// chance to read current properties. If the engine subscribed after
// reading, this signal would be lost and the call would time out.
func TestWaitConnectionActivationSubscriptionFirst(t *testing.T) {
	bus := nmfake.New()
	active := bus.SeedConnection(nm.SettingsMap{"connection": {"id": "race"}})

	// The fake fires the terminal signal from inside the properties read
	// that WaitConnectionActivation issues right after subscribing,
	// simulating a transition landing in the window the subscription-first
	// ordering is meant to close. Either the buffered signal or the
	// current-state read must surface Activated; it must never time out.
	bus.SetHook(nmfake.FaultActiveConnectionProps, func(args ...any) error {
		bus.PushActiveState(active, nm.ActiveActivated, 0)
		return nil
	})

	waiter := nm.NewStateWaiter(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := waiter.WaitConnectionActivation(ctx, active); err != nil {
		t.Fatalf("WaitConnectionActivation() = %v, want nil", err)
	}
}

func TestWaitConnectionActivationDeactivatedMapsReason(t *testing.T) {
	bus := nmfake.New()
	active := bus.SeedConnection(nm.SettingsMap{"connection": {"id": "home"}})

	bus.SetHook(nmfake.FaultSubscribeActiveState, func(args ...any) error {
		go bus.PushActiveState(active, nm.ActiveDeactivated, nm.ActiveReasonNoSecrets)
		return nil
	})

	waiter := nm.NewStateWaiter(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := waiter.WaitConnectionActivation(ctx, active)
	nerr, ok := err.(*nm.Error)
	if !ok {
		t.Fatalf("error type = %T, want *nm.Error", err)
	}
	if nerr.Kind != nm.KindAuthFailed {
		t.Errorf("Kind = %v, want AuthFailed", nerr.Kind)
	}
}

func TestWaitDeviceDisconnectTimeout(t *testing.T) {
	bus := nmfake.New()
	device := bus.AddDevice(nm.Device{Type: nm.DeviceWifi, State: nm.StateActivated})

	waiter := nm.NewStateWaiter(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := waiter.WaitDeviceDisconnect(ctx, device.Path)
	if err == nil {
		t.Fatal("expected a context-deadline error when no disconnect signal ever arrives")
	}
}
