package nm

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
)

// Default wait timeouts (spec §4.4).
const (
	activationTimeout     = 30 * time.Second
	disconnectTimeout     = 10 * time.Second
	wifiReadyTimeout      = 60 * time.Second
)

// StateWaiter is the State-Wait Engine (spec §4.4): it turns the
// asynchronous, signal-driven daemon state machine into synchronous
// wait-until primitives with precise outcomes. Callers must not
// recursively wait on the same resource (spec §4.4 "Ordering
// guarantees": "The engine does not re-enter").
type StateWaiter struct {
	bus Bus
}

// NewStateWaiter constructs a StateWaiter over the given Bus.
func NewStateWaiter(bus Bus) *StateWaiter {
	return &StateWaiter{bus: bus}
}

// WaitConnectionActivation subscribes to the active connection's
// StateChanged stream BEFORE reading current state, closing the race
// where a transition could land between a plain read and attaching a
// listener (spec §4.4, §5). Returns nil on Activated, a mapped *Error on
// Deactivated, Timeout after activationTimeout, or Stuck if the signal
// stream ends first.
func (w *StateWaiter) WaitConnectionActivation(ctx context.Context, active dbus.ObjectPath) error {
	sub, err := w.bus.SubscribeActiveState(ctx, active)
	if err != nil {
		return WrapDbus(err)
	}
	defer sub.Close()

	current, err := w.bus.ActiveConnectionProperties(ctx, active)
	if err == nil && current.State.Terminal() {
		if current.State == ActiveActivated {
			return nil
		}
		return newReason(KindActivationFailed, 0)
	}

	timer := time.NewTimer(activationTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return WrapDbus(ctx.Err())
		case <-timer.C:
			return newErr(KindTimeout)
		case change, ok := <-sub.Changes():
			if !ok {
				return newDetail(KindStuck, "signal stream ended")
			}
			switch change.State {
			case ActiveActivated:
				return nil
			case ActiveDeactivated:
				return MapActiveReason(change.Reason)
			default:
				continue
			}
		}
	}
}

// WaitDeviceDisconnect waits for a device to reach Disconnected or
// Unavailable (spec §4.4 "wait_device_disconnect").
func (w *StateWaiter) WaitDeviceDisconnect(ctx context.Context, device dbus.ObjectPath) error {
	return w.waitDeviceState(ctx, device, disconnectTimeout, func(s DeviceState) bool {
		return s == StateDisconnected || s == StateUnavailable
	})
}

// WaitWifiDeviceReady waits for a Wi-Fi device to settle into Disconnected
// or Activated after hardware init, with a longer timeout (spec §4.4
// "wait_wifi_device_ready").
func (w *StateWaiter) WaitWifiDeviceReady(ctx context.Context, device dbus.ObjectPath) error {
	err := w.waitDeviceState(ctx, device, wifiReadyTimeout, func(s DeviceState) bool {
		return s == StateDisconnected || s == StateActivated
	})
	if err != nil {
		if nerr, ok := err.(*Error); ok && (nerr.Kind == KindTimeout || nerr.Kind == KindStuck) {
			return newErr(KindWifiNotReady)
		}
		return err
	}
	return nil
}

func (w *StateWaiter) waitDeviceState(ctx context.Context, device dbus.ObjectPath, timeout time.Duration, terminal func(DeviceState) bool) error {
	sub, err := w.bus.SubscribeDeviceState(ctx, device)
	if err != nil {
		return WrapDbus(err)
	}
	defer sub.Close()

	current, err := w.bus.DeviceProperties(ctx, device)
	if err == nil && terminal(current.State) {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return WrapDbus(ctx.Err())
		case <-timer.C:
			return newErr(KindTimeout)
		case change, ok := <-sub.Changes():
			if !ok {
				return newDetail(KindStuck, "signal stream ended")
			}
			if terminal(change.New) {
				return nil
			}
			if change.New == StateFailed {
				return MapDeviceReason(change.Reason)
			}
		}
	}
}
