package nm

import "testing"

func TestDeviceTypeCodeRoundTrip(t *testing.T) {
	known := []DeviceType{DeviceEthernet, DeviceWifi, DeviceBluetooth, DeviceVlan, DeviceBond, DeviceBridge, DeviceTun, DeviceWireguard, DeviceWifiP2P, DeviceLoopback}
	for _, dt := range known {
		got := DeviceTypeFromCode(dt.Code())
		if got.Code() != dt.Code() {
			t.Errorf("DeviceTypeFromCode(%d).Code() = %d, want %d", dt.Code(), got.Code(), dt.Code())
		}
		if got.IsOther() {
			t.Errorf("DeviceTypeFromCode(%d) reported Other, want known", dt.Code())
		}
	}

	other := DeviceTypeFromCode(9999)
	if other.Code() != 9999 {
		t.Fatalf("unknown code round trip = %d, want 9999", other.Code())
	}
	if !other.IsOther() {
		t.Fatal("unknown device type code should report IsOther")
	}
}

func TestDeviceStateCodeRoundTrip(t *testing.T) {
	known := []DeviceState{StateUnmanaged, StateUnavailable, StateDisconnected, StatePrepare, StateConfig, StateActivated, StateDeactivating, StateFailed}
	for _, s := range known {
		if got := DeviceStateFromCode(s.Code()); got.Code() != s.Code() {
			t.Errorf("DeviceStateFromCode(%d).Code() = %d, want %d", s.Code(), got.Code(), s.Code())
		}
	}
	if got := DeviceStateFromCode(77); got.Code() != 77 {
		t.Fatalf("unknown state round trip = %d, want 77", got.Code())
	}
}

func TestActiveStateCodeRoundTrip(t *testing.T) {
	known := []ActiveState{ActiveUnknown, ActiveActivating, ActiveActivated, ActiveDeactivating, ActiveDeactivated}
	for _, s := range known {
		if got := ActiveStateFromCode(s.Code()); got.Code() != s.Code() {
			t.Errorf("ActiveStateFromCode(%d).Code() = %d, want %d", s.Code(), got.Code(), s.Code())
		}
	}
}

func TestDeviceStateTerminal(t *testing.T) {
	terminal := []DeviceState{StateDisconnected, StateUnavailable, StateActivated, StateFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	nonTerminal := []DeviceState{StateUnmanaged, StatePrepare, StateConfig, StateDeactivating}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestAccessPointSecurityFlags(t *testing.T) {
	open := AccessPoint{}
	if open.Secured() || open.IsPSK() || open.IsEAP() {
		t.Fatal("zero-value AccessPoint should report unsecured")
	}

	psk := AccessPoint{Flags: apFlagPrivacy, WpaFlags: wpaKeyMgmtPSK}
	if !psk.Secured() || !psk.IsPSK() || psk.IsEAP() {
		t.Fatal("PSK access point should be Secured and IsPSK, not IsEAP")
	}

	eap := AccessPoint{RsnFlags: wpaKeyMgmtEAP}
	if !eap.Secured() || eap.IsPSK() || !eap.IsEAP() {
		t.Fatal("EAP access point should be Secured and IsEAP, not IsPSK")
	}
}
