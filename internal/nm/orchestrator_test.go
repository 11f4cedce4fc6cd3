package nm_test

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"nmctl/internal/nm"
	"nmctl/internal/nmfake"
)

func wifiScenarioBus(t *testing.T, ssid string, freq uint32) (*nmfake.Bus, dbus.ObjectPath) {
	t.Helper()
	bus := nmfake.New()
	dev := bus.AddDevice(nm.Device{Interface: "wlan0", Type: nm.DeviceWifi, State: nm.StateDisconnected})
	bus.AddAccessPoint(dev.Path, nm.AccessPoint{SSID: []byte(ssid), Frequency: freq, Strength: 80})
	return bus, dev.Path
}

// autoActivate arranges for the next ActivateConnection or
// AddAndActivateConnection call to settle to the given terminal active
// state shortly afterward, so StateWaiter.WaitConnectionActivation does
// not block for its full timeout in tests.
func autoActivate(bus *nmfake.Bus, terminal nm.ActiveState, reason int) {
	settle := func(args ...any) error {
		go func() {
			// allow ActivateConnection/AddAndActivateConnection to finish
			// and register the active connection before the state lands.
			time.Sleep(20 * time.Millisecond)
			for _, active := range activeConnectionPaths(bus) {
				bus.PushActiveState(active, nm.ActiveActivating, 0)
				bus.PushActiveState(active, terminal, reason)
			}
		}()
		return nil
	}
	bus.SetHook(nmfake.FaultSubscribeActiveState, settle)
}

func activeConnectionPaths(bus *nmfake.Bus) []dbus.ObjectPath {
	paths, _ := bus.ActiveConnections(context.Background())
	return paths
}

// TestConnectWifiOpenFresh is seed scenario 1: an open network with no
// saved profile builds settings with no security section and activates.
func TestConnectWifiOpenFresh(t *testing.T) {
	bus, _ := wifiScenarioBus(t, "CoffeeShop", 2437)
	autoActivate(bus, nm.ActiveActivated, 0)

	orch := nm.NewOrchestrator(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := orch.ConnectWifi(ctx, []byte("CoffeeShop"), nm.Open{}, nm.Options{}, nm.WifiOptions{})
	if err != nil {
		t.Fatalf("ConnectWifi() = %v, want nil", err)
	}

	calls := bus.Calls("AddAndActivateConnection")
	if len(calls) != 1 {
		t.Fatalf("AddAndActivateConnection called %d times, want 1", len(calls))
	}
	settings, ok := calls[0].Args[0].(nm.SettingsMap)
	if !ok {
		t.Fatalf("first arg type = %T, want nm.SettingsMap", calls[0].Args[0])
	}
	if settings["connection"]["type"] != "802-11-wireless" {
		t.Errorf("connection.type = %v, want 802-11-wireless", settings["connection"]["type"])
	}
	if _, hasSecurity := settings["802-11-wireless-security"]; hasSecurity {
		t.Error("open network should not carry a security section")
	}
	if settings["ipv4"]["method"] != "auto" || settings["ipv6"]["method"] != "auto" {
		t.Error("expected ipv4/ipv6 method auto")
	}

	scanCalls := bus.Calls("RequestScan")
	if len(scanCalls) == 0 {
		t.Error("expected at least one RequestScan call before resolving the AP")
	}
}

// TestConnectWifiSavedPasswordUpdateRebuildsFresh is seed scenario 2: a
// saved profile exists, but a non-empty PSK forces a rebuild rather than
// reusing the saved profile.
func TestConnectWifiSavedPasswordUpdateRebuildsFresh(t *testing.T) {
	bus, _ := wifiScenarioBus(t, "Home", 2412)
	bus.SeedConnection(nm.SettingsMap{
		"connection":       {"id": "Home"},
		"802-11-wireless":  {"ssid": []byte("Home")},
	})
	autoActivate(bus, nm.ActiveActivated, 0)

	orch := nm.NewOrchestrator(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := orch.ConnectWifi(ctx, []byte("Home"), nm.WpaPsk{PSK: "newpass"}, nm.Options{}, nm.WifiOptions{})
	if err != nil {
		t.Fatalf("ConnectWifi() = %v, want nil", err)
	}

	calls := bus.Calls("AddAndActivateConnection")
	if len(calls) != 1 {
		t.Fatalf("AddAndActivateConnection called %d times, want 1", len(calls))
	}
	settings := calls[0].Args[0].(nm.SettingsMap)
	sec := settings["802-11-wireless-security"]
	if sec["key-mgmt"] != "wpa-psk" {
		t.Errorf("key-mgmt = %v, want wpa-psk", sec["key-mgmt"])
	}
	if sec["psk"] != "newpass" {
		t.Errorf("psk = %v, want newpass", sec["psk"])
	}
	proto, _ := sec["proto"].([]string)
	if len(proto) != 1 || proto[0] != "rsn" {
		t.Errorf("proto = %v, want [rsn]", proto)
	}
}

// TestConnectWifiStaleSavedProfileSurfacesOriginalFailure is seed scenario
// 3: the saved profile activation fails with AuthFailed; the rebuild (with
// an empty PSK) cannot itself proceed, so the original AuthFailed surfaces
// rather than the rebuild's own validation error.
func TestConnectWifiStaleSavedProfileSurfacesOriginalFailure(t *testing.T) {
	bus, _ := wifiScenarioBus(t, "Home", 2412)
	bus.SeedConnection(nm.SettingsMap{
		"connection":      {"id": "Home"},
		"802-11-wireless": {"ssid": []byte("Home")},
	})

	bus.SetHook(nmfake.FaultSubscribeActiveState, func(args ...any) error {
		go func() {
			time.Sleep(20 * time.Millisecond)
			for _, active := range activeConnectionPaths(bus) {
				bus.PushActiveState(active, nm.ActiveDeactivated, nm.ActiveReasonNoSecrets)
			}
		}()
		return nil
	})

	orch := nm.NewOrchestrator(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := orch.ConnectWifi(ctx, []byte("Home"), nm.WpaPsk{PSK: ""}, nm.Options{}, nm.WifiOptions{})
	if err == nil {
		t.Fatal("expected the original activation failure to surface")
	}
	nerr, ok := err.(*nm.Error)
	if !ok {
		t.Fatalf("error type = %T, want *nm.Error", err)
	}
	if nerr.Kind != nm.KindAuthFailed {
		t.Errorf("Kind = %v, want AuthFailed", nerr.Kind)
	}

	if len(bus.Calls("DeleteConnection")) != 1 {
		t.Errorf("DeleteConnection called %d times, want 1 (stale profile cleanup)", len(bus.Calls("DeleteConnection")))
	}
}

// TestForgetProtectsActiveConnection is seed scenario 6: forgetting a
// profile whose device never confirms disconnect must time out as Stuck
// and must never delete the saved profile.
func TestForgetProtectsActiveConnection(t *testing.T) {
	bus := nmfake.New()
	dev := bus.AddDevice(nm.Device{Interface: "wlan0", Type: nm.DeviceWifi, State: nm.StateActivated})
	active, err := bus.ActivateConnection(context.Background(), bus.SeedConnection(nm.SettingsMap{
		"connection":      {"id": "Home"},
		"802-11-wireless": {"ssid": []byte("Home")},
	}), dev.Path, "/")
	if err != nil {
		t.Fatalf("seed ActivateConnection() = %v", err)
	}
	bus.PushActiveState(active, nm.ActiveActivated, 0)
	dev.ActivePath = active
	bus.AddDevice(dev)

	orch := nm.NewOrchestrator(bus)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err = orch.Forget(ctx, nm.ForgetWifi, "Home")
	if err == nil {
		t.Fatal("expected Forget to fail when the device never confirms disconnect")
	}
	nerr, ok := err.(*nm.Error)
	if !ok {
		t.Fatalf("error type = %T, want *nm.Error", err)
	}
	if nerr.Kind != nm.KindStuck {
		t.Errorf("Kind = %v, want Stuck", nerr.Kind)
	}
	if len(bus.Calls("DeleteConnection")) != 0 {
		t.Error("Forget must not delete the saved profile when disconnect never completes")
	}
}
