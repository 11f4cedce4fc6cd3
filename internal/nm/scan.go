package nm

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
)

// apStabilizationWait is the short fixed wait after requesting a scan
// before reading the AP list; the daemon populates APs incrementally, so
// the resolver does not need scan completion, only current visibility
// (spec §4.3 "Rationale").
const apStabilizationWait = 2 * time.Second

// Scanner is the Scan & Resolver component (spec §4.3).
type Scanner struct {
	bus   Bus
	sleep func(context.Context, time.Duration)
}

// NewScanner constructs a Scanner over the given Bus.
func NewScanner(bus Bus) *Scanner {
	return &Scanner{bus: bus, sleep: contextSleep}
}

func contextSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ScanAllWifi fires RequestScan on every Wi-Fi device. It does not block
// on scan completion (spec §4.3 "Fire-and-forget"); per-device failures
// are logged, not returned, since scanning is best-effort.
func (s *Scanner) ScanAllWifi(ctx context.Context, wifiDevices []Device) {
	for _, d := range wifiDevices {
		if err := s.bus.RequestScan(ctx, d.Path); err != nil {
			slog.Warn("scan request failed", "device", d.Path, "error", err)
		}
	}
}

// ListNetworks enumerates APs across the given Wi-Fi devices and
// deduplicates them by (SSID, frequency) (spec §4.3, §3.2).
func (s *Scanner) ListNetworks(ctx context.Context, wifiDevices []Device) ([]Network, error) {
	var all []AccessPoint
	for _, d := range wifiDevices {
		paths, err := s.bus.WirelessAccessPoints(ctx, d.Path)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			ap, err := s.bus.AccessPointProperties(ctx, p)
			if err != nil {
				slog.Warn("access point properties unreadable", "path", p, "error", err)
				continue
			}
			all = append(all, ap)
		}
	}
	return MergeAccessPoints(all), nil
}

// ResolveAP requests a scan on wifiDevice, waits for AP-list
// stabilization, then returns the path of the first AP whose SSID
// matches targetSSID (spec §4.3 "resolve_ap").
func (s *Scanner) ResolveAP(ctx context.Context, wifiDevice dbus.ObjectPath, targetSSID []byte) (dbus.ObjectPath, error) {
	if err := s.bus.RequestScan(ctx, wifiDevice); err != nil {
		slog.Warn("scan request failed during resolve", "device", wifiDevice, "error", err)
	}
	s.sleep(ctx, apStabilizationWait)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	paths, err := s.bus.WirelessAccessPoints(ctx, wifiDevice)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		ap, err := s.bus.AccessPointProperties(ctx, p)
		if err != nil {
			continue
		}
		if string(ap.SSID) == string(targetSSID) {
			return p, nil
		}
	}
	return "", newErr(KindNotFound)
}
