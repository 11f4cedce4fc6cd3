package nm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// monitorResubscribeBackoff is the fixed delay before a monitor loop
// re-subscribes after a transient stream failure (spec §4.6, §3.3).
const monitorResubscribeBackoff = 2 * time.Second

// Monitor is the Monitor Fan-out component (spec §4.6): it bridges daemon
// signals to user callbacks with shutdown support. Subscriptions are
// process-lifetime; each loop re-subscribes on transient failure after a
// backoff (spec §3.3).
type Monitor struct {
	bus Bus
}

// NewMonitor constructs a Monitor over the given Bus.
func NewMonitor(bus Bus) *Monitor {
	return &Monitor{bus: bus}
}

// MonitorNetworkChanges subscribes to AccessPointAdded/Removed on every
// Wi-Fi device and invokes f once per observed signal, until shutdown
// fires (spec §4.6 "monitor_network_changes"). Per-device subscribe
// failures are aggregated and logged rather than aborting the whole
// fan-out — one broken Wi-Fi device should not blind the others.
func (m *Monitor) MonitorNetworkChanges(ctx context.Context, shutdown <-chan struct{}, wifiDevices []Device, f func()) {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-loopCtx.Done():
		}
	}()

	for {
		var subs []AccessPointSub
		var errs *multierror.Error
		for _, d := range wifiDevices {
			sub, err := m.bus.SubscribeAccessPoints(loopCtx, d.Path)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			subs = append(subs, sub)
		}
		if errs.ErrorOrNil() != nil {
			slog.Warn("monitor: some access point subscriptions failed", "error", errs)
		}
		if len(subs) == 0 {
			if !sleepOrDone(loopCtx, monitorResubscribeBackoff) {
				return
			}
			continue
		}

		merged := make(chan AccessPointEvent, 32)
		done := make(chan struct{})
		go fanInAccessPoints(loopCtx, subs, merged, done)

		restart := false
	drain:
		for {
			select {
			case <-loopCtx.Done():
				for _, s := range subs {
					s.Close()
				}
				<-done
				return
			case _, ok := <-merged:
				if !ok {
					restart = true
					break drain
				}
				f()
			}
		}
		for _, s := range subs {
			s.Close()
		}
		<-done
		if restart {
			slog.Debug("monitor: access point stream ended, resubscribing", "backoff", monitorResubscribeBackoff)
			if !sleepOrDone(loopCtx, monitorResubscribeBackoff) {
				return
			}
		}
	}
}

func fanInAccessPoints(ctx context.Context, subs []AccessPointSub, out chan<- AccessPointEvent, done chan<- struct{}) {
	defer close(done)
	defer close(out)
	remaining := len(subs)
	if remaining == 0 {
		return
	}
	events := make(chan AccessPointEvent, 32)
	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(s AccessPointSub) {
			defer wg.Done()
			for ev := range s.Events() {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}(s)
	}
	go func() {
		wg.Wait()
		close(events)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// MonitorDeviceChanges subscribes to DeviceAdded, DeviceRemoved, and the
// daemon-level StateChanged signal and invokes f once per observed event,
// until shutdown fires (spec §4.6 "monitor_device_changes").
func (m *Monitor) MonitorDeviceChanges(ctx context.Context, shutdown <-chan struct{}, f func()) {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-loopCtx.Done():
		}
	}()

	for {
		sub, err := m.bus.SubscribeTopology(loopCtx)
		if err != nil {
			if loopCtx.Err() != nil {
				return
			}
			slog.Warn("monitor: topology subscribe failed, retrying", "error", err)
			if !sleepOrDone(loopCtx, monitorResubscribeBackoff) {
				return
			}
			continue
		}

		restart := false
	drain:
		for {
			select {
			case <-loopCtx.Done():
				sub.Close()
				return
			case _, ok := <-sub.Events():
				if !ok {
					restart = true
					break drain
				}
				f()
			}
		}
		sub.Close()
		if restart {
			if !sleepOrDone(loopCtx, monitorResubscribeBackoff) {
				return
			}
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
