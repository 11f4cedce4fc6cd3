package nmfake

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"

	"nmctl/internal/nm"
)

const (
	FaultSubscribeDeviceState  = "bus.subscribe_device_state"
	FaultSubscribeActiveState  = "bus.subscribe_active_state"
	FaultSubscribeTopology     = "bus.subscribe_topology"
	FaultSubscribeAccessPoints = "bus.subscribe_access_points"
)

type deviceStateSub struct {
	bus    *Bus
	device dbus.ObjectPath
	ch     chan nm.DeviceStateChange
	once   sync.Once
}

func (s *deviceStateSub) Changes() <-chan nm.DeviceStateChange { return s.ch }

func (s *deviceStateSub) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		subs := s.bus.deviceSubs[s.device]
		for i, sub := range subs {
			if sub == s {
				s.bus.deviceSubs[s.device] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *deviceStateSub) push(ev nm.DeviceStateChange) {
	select {
	case s.ch <- ev:
	default:
	}
}

func (b *Bus) SubscribeDeviceState(ctx context.Context, device dbus.ObjectPath) (nm.DeviceStateSub, error) {
	b.record("SubscribeDeviceState", device)
	if err := b.faults.Eval(FaultSubscribeDeviceState, device); err != nil {
		return nil, err
	}
	sub := &deviceStateSub{bus: b, device: device, ch: make(chan nm.DeviceStateChange, 16)}
	b.mu.Lock()
	b.deviceSubs[device] = append(b.deviceSubs[device], sub)
	b.mu.Unlock()
	return sub, nil
}

type activeStateSub struct {
	bus    *Bus
	active dbus.ObjectPath
	ch     chan nm.ActiveStateChange
	once   sync.Once
}

func (s *activeStateSub) Changes() <-chan nm.ActiveStateChange { return s.ch }

func (s *activeStateSub) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		subs := s.bus.activeSubs[s.active]
		for i, sub := range subs {
			if sub == s {
				s.bus.activeSubs[s.active] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *activeStateSub) push(ev nm.ActiveStateChange) {
	select {
	case s.ch <- ev:
	default:
	}
}

func (b *Bus) SubscribeActiveState(ctx context.Context, active dbus.ObjectPath) (nm.ActiveStateSub, error) {
	b.record("SubscribeActiveState", active)
	if err := b.faults.Eval(FaultSubscribeActiveState, active); err != nil {
		return nil, err
	}
	sub := &activeStateSub{bus: b, active: active, ch: make(chan nm.ActiveStateChange, 16)}
	b.mu.Lock()
	b.activeSubs[active] = append(b.activeSubs[active], sub)
	b.mu.Unlock()
	return sub, nil
}

type topologySub struct {
	bus  *Bus
	ch   chan nm.TopologyEvent
	once sync.Once
}

func (s *topologySub) Events() <-chan nm.TopologyEvent { return s.ch }

func (s *topologySub) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		subs := s.bus.topologySubs
		for i, sub := range subs {
			if sub == s {
				s.bus.topologySubs = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *topologySub) push(ev nm.TopologyEvent) {
	select {
	case s.ch <- ev:
	default:
	}
}

func (b *Bus) SubscribeTopology(ctx context.Context) (nm.TopologySub, error) {
	b.record("SubscribeTopology")
	if err := b.faults.Eval(FaultSubscribeTopology); err != nil {
		return nil, err
	}
	sub := &topologySub{bus: b, ch: make(chan nm.TopologyEvent, 16)}
	b.mu.Lock()
	b.topologySubs = append(b.topologySubs, sub)
	b.mu.Unlock()
	return sub, nil
}

type accessPointSub struct {
	bus    *Bus
	device dbus.ObjectPath
	ch     chan nm.AccessPointEvent
	once   sync.Once
}

func (s *accessPointSub) Events() <-chan nm.AccessPointEvent { return s.ch }

func (s *accessPointSub) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		subs := s.bus.apSubs[s.device]
		for i, sub := range subs {
			if sub == s {
				s.bus.apSubs[s.device] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *accessPointSub) push(ev nm.AccessPointEvent) {
	select {
	case s.ch <- ev:
	default:
	}
}

func (b *Bus) SubscribeAccessPoints(ctx context.Context, device dbus.ObjectPath) (nm.AccessPointSub, error) {
	b.record("SubscribeAccessPoints", device)
	if err := b.faults.Eval(FaultSubscribeAccessPoints, device); err != nil {
		return nil, err
	}
	sub := &accessPointSub{bus: b, device: device, ch: make(chan nm.AccessPointEvent, 16)}
	b.mu.Lock()
	b.apSubs[device] = append(b.apSubs[device], sub)
	b.mu.Unlock()
	return sub, nil
}
