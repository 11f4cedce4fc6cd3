package nm

import (
	"context"

	"github.com/godbus/dbus/v5"

	"nmctl/internal/dbusx"
)

type deviceStateSub struct {
	sub *dbusx.Subscription
	ch  chan DeviceStateChange
	done chan struct{}
}

func (s *deviceStateSub) Changes() <-chan DeviceStateChange { return s.ch }

func (s *deviceStateSub) Close() {
	s.sub.Close()
	<-s.done
}

// SubscribeDeviceState subscribes to StateChanged(new, old, reason) on one
// device, established before any state read the caller will make (spec
// §4.4, §5). The subscription is torn down by Close, whether the caller
// reached a terminal transition, timed out, or was cancelled (spec §3.3).
func (b *busImpl) SubscribeDeviceState(ctx context.Context, device dbus.ObjectPath) (DeviceStateSub, error) {
	rawSub, err := b.conn.SubscribeSignal(ctx, device, IfaceDevice, "StateChanged")
	if err != nil {
		return nil, WrapDbusOperation("Device.StateChanged subscribe", err)
	}
	s := &deviceStateSub{sub: rawSub, ch: make(chan DeviceStateChange, 16), done: make(chan struct{})}
	go func() {
		defer close(s.ch)
		defer close(s.done)
		for sig := range rawSub.Signals() {
			if len(sig.Body) != 3 {
				continue
			}
			newCode, ok1 := sig.Body[0].(uint32)
			oldCode, ok2 := sig.Body[1].(uint32)
			reason, ok3 := sig.Body[2].(uint32)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			s.ch <- DeviceStateChange{
				New:    DeviceStateFromCode(int(newCode)),
				Old:    DeviceStateFromCode(int(oldCode)),
				Reason: int(reason),
			}
		}
	}()
	return s, nil
}

type activeStateSub struct {
	sub  *dbusx.Subscription
	ch   chan ActiveStateChange
	done chan struct{}
}

func (s *activeStateSub) Changes() <-chan ActiveStateChange { return s.ch }

func (s *activeStateSub) Close() {
	s.sub.Close()
	<-s.done
}

// SubscribeActiveState subscribes to StateChanged(state, reason) on one
// active connection (spec §4.4 "wait_connection_activation").
func (b *busImpl) SubscribeActiveState(ctx context.Context, active dbus.ObjectPath) (ActiveStateSub, error) {
	rawSub, err := b.conn.SubscribeSignal(ctx, active, IfaceConnectionActive, "StateChanged")
	if err != nil {
		return nil, WrapDbusOperation("Connection.Active.StateChanged subscribe", err)
	}
	s := &activeStateSub{sub: rawSub, ch: make(chan ActiveStateChange, 16), done: make(chan struct{})}
	go func() {
		defer close(s.ch)
		defer close(s.done)
		for sig := range rawSub.Signals() {
			if len(sig.Body) != 2 {
				continue
			}
			stateCode, ok1 := sig.Body[0].(uint32)
			reason, ok2 := sig.Body[1].(uint32)
			if !ok1 || !ok2 {
				continue
			}
			s.ch <- ActiveStateChange{
				State:  ActiveStateFromCode(int(stateCode)),
				Reason: int(reason),
			}
		}
	}()
	return s, nil
}

type topologySub struct {
	deviceAdded   *dbusx.Subscription
	deviceRemoved *dbusx.Subscription
	stateChanged  *dbusx.Subscription
	ch            chan TopologyEvent
	cancel        context.CancelFunc
	done          chan struct{}
}

func (s *topologySub) Events() <-chan TopologyEvent { return s.ch }

func (s *topologySub) Close() {
	s.cancel()
	s.deviceAdded.Close()
	s.deviceRemoved.Close()
	s.stateChanged.Close()
	<-s.done
}

// SubscribeTopology merges DeviceAdded, DeviceRemoved, and the
// daemon-level StateChanged signal into one stream (spec §4.6
// "monitor_device_changes").
func (b *busImpl) SubscribeTopology(ctx context.Context) (TopologySub, error) {
	added, err := b.conn.SubscribeSignal(ctx, PathNetworkManager, IfaceNetworkManager, "DeviceAdded")
	if err != nil {
		return nil, WrapDbusOperation("NetworkManager.DeviceAdded subscribe", err)
	}
	removed, err := b.conn.SubscribeSignal(ctx, PathNetworkManager, IfaceNetworkManager, "DeviceRemoved")
	if err != nil {
		added.Close()
		return nil, WrapDbusOperation("NetworkManager.DeviceRemoved subscribe", err)
	}
	state, err := b.conn.SubscribeSignal(ctx, PathNetworkManager, IfaceNetworkManager, "StateChanged")
	if err != nil {
		added.Close()
		removed.Close()
		return nil, WrapDbusOperation("NetworkManager.StateChanged subscribe", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s := &topologySub{
		deviceAdded:   added,
		deviceRemoved: removed,
		stateChanged:  state,
		ch:            make(chan TopologyEvent, 32),
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	go func() {
		defer close(s.ch)
		defer close(s.done)
		for {
			select {
			case <-loopCtx.Done():
				return
			case sig, ok := <-added.Signals():
				if !ok {
					return
				}
				if path, ok := pathFromBody(sig.Body); ok {
					s.ch <- TopologyEvent{Kind: DeviceAddedEvent, Path: path}
				}
			case sig, ok := <-removed.Signals():
				if !ok {
					return
				}
				if path, ok := pathFromBody(sig.Body); ok {
					s.ch <- TopologyEvent{Kind: DeviceRemovedEvent, Path: path}
				}
			case _, ok := <-state.Signals():
				if !ok {
					return
				}
				s.ch <- TopologyEvent{Kind: GlobalStateChangedEvent}
			}
		}
	}()

	return s, nil
}

func pathFromBody(body []any) (dbus.ObjectPath, bool) {
	if len(body) != 1 {
		return "", false
	}
	p, ok := body[0].(dbus.ObjectPath)
	return p, ok
}

type accessPointSub struct {
	added   *dbusx.Subscription
	removed *dbusx.Subscription
	ch      chan AccessPointEvent
	cancel  context.CancelFunc
	done    chan struct{}
}

func (s *accessPointSub) Events() <-chan AccessPointEvent { return s.ch }

func (s *accessPointSub) Close() {
	s.cancel()
	s.added.Close()
	s.removed.Close()
	<-s.done
}

// SubscribeAccessPoints merges AccessPointAdded/Removed for one Wi-Fi
// device (spec §4.6 "monitor_network_changes").
func (b *busImpl) SubscribeAccessPoints(ctx context.Context, device dbus.ObjectPath) (AccessPointSub, error) {
	added, err := b.conn.SubscribeSignal(ctx, device, IfaceDeviceWireless, "AccessPointAdded")
	if err != nil {
		return nil, WrapDbusOperation("Wireless.AccessPointAdded subscribe", err)
	}
	removed, err := b.conn.SubscribeSignal(ctx, device, IfaceDeviceWireless, "AccessPointRemoved")
	if err != nil {
		added.Close()
		return nil, WrapDbusOperation("Wireless.AccessPointRemoved subscribe", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s := &accessPointSub{added: added, removed: removed, ch: make(chan AccessPointEvent, 32), cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.ch)
		defer close(s.done)
		for {
			select {
			case <-loopCtx.Done():
				return
			case sig, ok := <-added.Signals():
				if !ok {
					return
				}
				if path, ok := pathFromBody(sig.Body); ok {
					s.ch <- AccessPointEvent{Kind: AccessPointAddedEvent, Path: path}
				}
			case sig, ok := <-removed.Signals():
				if !ok {
					return
				}
				if path, ok := pathFromBody(sig.Body); ok {
					s.ch <- AccessPointEvent{Kind: AccessPointRemovedEvent, Path: path}
				}
			}
		}
	}()
	return s, nil
}
