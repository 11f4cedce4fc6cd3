package nm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/hashicorp/go-multierror"
)

// Orchestrator is the Lifecycle Orchestrator (spec §4.5): the central
// state machine. It exclusively owns the control flow of one request
// from entry to terminal result; within a request, steps are strictly
// sequential (discover -> validate -> resolve -> activate -> wait), never
// overlapped (spec §3.3, §5).
type Orchestrator struct {
	bus       Bus
	discovery *Discovery
	scanner   *Scanner
	waiter    *StateWaiter
}

// NewOrchestrator constructs an Orchestrator over the given Bus.
func NewOrchestrator(bus Bus) *Orchestrator {
	return &Orchestrator{
		bus:       bus,
		discovery: NewDiscovery(bus),
		scanner:   NewScanner(bus),
		waiter:    NewStateWaiter(bus),
	}
}

// --- shared saved-profile lookup helpers ---

type foundProfile struct {
	path     dbus.ObjectPath
	settings SettingsMap
}

func (o *Orchestrator) savedProfiles(ctx context.Context) ([]foundProfile, error) {
	paths, err := o.bus.ListConnections(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]foundProfile, 0, len(paths))
	for _, p := range paths {
		s, err := o.bus.ConnectionSettings(ctx, p)
		if err != nil {
			slog.Warn("orchestrator: saved profile settings unreadable", "path", p, "error", err)
			continue
		}
		out = append(out, foundProfile{path: p, settings: s})
	}
	return out, nil
}

func settingsString(s SettingsMap, section, field string) (string, bool) {
	sec, ok := s[section]
	if !ok {
		return "", false
	}
	v, ok := sec[field]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func settingsSSID(s SettingsMap) ([]byte, bool) {
	sec, ok := s["802-11-wireless"]
	if !ok {
		return nil, false
	}
	v, ok := sec["ssid"]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (o *Orchestrator) findSavedBySSID(ctx context.Context, ssid []byte) (*foundProfile, error) {
	profiles, err := o.savedProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if b, ok := settingsSSID(profiles[i].settings); ok && string(b) == string(ssid) {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

func (o *Orchestrator) findSavedByInterface(ctx context.Context, name string) (*foundProfile, error) {
	profiles, err := o.savedProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if iface, ok := settingsString(profiles[i].settings, "connection", "interface-name"); ok && iface == name {
			return &profiles[i], nil
		}
		if id, ok := settingsString(profiles[i].settings, "connection", "id"); ok && id == name {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

func (o *Orchestrator) findSavedByName(ctx context.Context, name string) (*foundProfile, error) {
	profiles, err := o.savedProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if id, ok := settingsString(profiles[i].settings, "connection", "id"); ok && id == name {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

func (o *Orchestrator) disconnectAndWait(ctx context.Context, device dbus.ObjectPath) error {
	// A device already Disconnected or Unavailable needs no Disconnect call.
	if d, err := o.bus.DeviceProperties(ctx, device); err == nil && (d.State == StateDisconnected || d.State == StateUnavailable) {
		return nil
	}
	if err := o.bus.DeviceDisconnect(ctx, device); err != nil {
		return WrapDbus(err)
	}
	return o.waiter.WaitDeviceDisconnect(ctx, device)
}

func firstWifiDevice(devices []Device) (Device, bool) {
	for _, d := range devices {
		if d.Type == DeviceWifi {
			return d, true
		}
	}
	return Device{}, false
}

func firstWiredDevice(devices []Device) (Device, bool) {
	for _, d := range devices {
		if d.Type == DeviceEthernet {
			return d, true
		}
	}
	return Device{}, false
}

// --- §4.5.1 Wi-Fi connect ---

// ConnectWifi implements the Wi-Fi connect sequence of spec §4.5.1,
// including the automatic delete-and-rebuild recovery when a saved
// profile's activation fails.
func (o *Orchestrator) ConnectWifi(ctx context.Context, ssid []byte, cred Credential, opts Options, wifiOpts WifiOptions) error {
	saved, err := o.findSavedBySSID(ctx, ssid)
	if err != nil {
		return err
	}
	action := DecideWifiAction(saved != nil, cred)
	if action == ActionFail {
		return newErr(KindNoSavedConnection)
	}

	wifiDevices, err := o.discovery.ListWireless(ctx)
	if err != nil {
		return err
	}
	device, ok := firstWifiDevice(wifiDevices)
	if !ok {
		return newErr(KindNoWifiDevice)
	}

	if device.ActivePath != "" {
		active, err := o.bus.ActiveConnectionProperties(ctx, device.ActivePath)
		if err == nil {
			if b, ok := settingsSSID(o.connSettingsOrNil(ctx, active.Connection)); ok && string(b) == string(ssid) {
				return nil
			}
		}
	}

	apPath, err := o.scanner.ResolveAP(ctx, device.Path, ssid)
	if err != nil {
		return err
	}

	if action == ActionUseSaved {
		if err := o.disconnectAndWait(ctx, device.Path); err != nil {
			return err
		}
		active, err := o.bus.ActivateConnection(ctx, saved.path, device.Path, apPath)
		if err != nil {
			return WrapDbus(err)
		}
		if waitErr := o.waiter.WaitConnectionActivation(ctx, active); waitErr != nil {
			slog.Warn("saved wifi profile activation failed, deleting and rebuilding", "ssid", DecodeSSIDOrHidden(ssid), "error", waitErr)
			if delErr := o.bus.DeleteConnection(ctx, saved.path); delErr != nil {
				slog.Warn("failed to delete stale saved profile", "path", saved.path, "error", delErr)
			}
			// The rebuild itself may fail its own way (e.g. an empty saved
			// PSK fails validation rather than reaching IPC at all); the
			// original activation failure is the one callers act on.
			if rebuildErr := o.connectWifiFresh(ctx, ssid, cred, opts, wifiOpts, device.Path, apPath); rebuildErr != nil {
				slog.Warn("wifi rebuild after stale profile also failed", "ssid", DecodeSSIDOrHidden(ssid), "error", rebuildErr)
			}
			return waitErr
		}
		return nil
	}

	return o.connectWifiFresh(ctx, ssid, cred, opts, wifiOpts, device.Path, apPath)
}

func (o *Orchestrator) connectWifiFresh(ctx context.Context, ssid []byte, cred Credential, opts Options, wifiOpts WifiOptions, device, apPath dbus.ObjectPath) error {
	settings, err := BuildWifi(ssid, cred, opts, wifiOpts)
	if err != nil {
		return err
	}
	if err := o.disconnectAndWait(ctx, device); err != nil {
		return err
	}
	_, active, err := o.bus.AddAndActivateConnection(ctx, settings, device, apPath)
	if err != nil {
		return WrapDbus(err)
	}
	return o.waiter.WaitConnectionActivation(ctx, active)
}

func (o *Orchestrator) connSettingsOrNil(ctx context.Context, path dbus.ObjectPath) SettingsMap {
	s, err := o.bus.ConnectionSettings(ctx, path)
	if err != nil {
		return nil
	}
	return s
}

// --- §4.5.2 Ethernet connect ---

// ConnectEthernet implements spec §4.5.2.
func (o *Orchestrator) ConnectEthernet(ctx context.Context, opts Options) error {
	wired, err := o.discovery.ListWired(ctx)
	if err != nil {
		return err
	}
	device, ok := firstWiredDevice(wired)
	if !ok {
		return newErr(KindNoWiredDevice)
	}
	if device.State == StateActivated {
		return nil
	}

	saved, err := o.findSavedByInterface(ctx, device.Interface)
	if err != nil {
		return err
	}

	var active dbus.ObjectPath
	if saved != nil {
		active, err = o.bus.ActivateConnection(ctx, saved.path, device.Path, PathAny)
	} else {
		settings, buildErr := BuildEthernet(device.Interface, opts)
		if buildErr != nil {
			return buildErr
		}
		_, active, err = o.bus.AddAndActivateConnection(ctx, settings, device.Path, PathAny)
	}
	if err != nil {
		return WrapDbus(err)
	}
	return o.waiter.WaitConnectionActivation(ctx, active)
}

// --- §4.5.3 Bluetooth connect ---

// bluetoothSpecificObject derives the BlueZ device object path from a
// BDADDR under the single-adapter assumption (spec §4.5.3, §9 open
// question 1: multi-adapter hosts are not handled).
func bluetoothSpecificObject(bdaddr string) dbus.ObjectPath {
	escaped := strings.ReplaceAll(bdaddr, ":", "_")
	return dbus.ObjectPath("/org/bluez/hci0/dev_" + escaped)
}

// ConnectBluetooth implements spec §4.5.3. It assumes the device is
// already paired in the OS Bluetooth stack (out of scope for this core).
func (o *Orchestrator) ConnectBluetooth(ctx context.Context, name, bdaddr, role string, opts Options) error {
	btDevices, err := o.discovery.ListBluetooth(ctx)
	if err != nil {
		return err
	}
	for _, d := range btDevices {
		if d.ActivePath == "" {
			continue
		}
		if strings.EqualFold(d.Identity.CurrentMAC, bdaddr) && d.State == StateActivated {
			return nil
		}
	}

	specificObject := bluetoothSpecificObject(bdaddr)
	saved, err := o.findSavedByName(ctx, name)
	if err != nil {
		return err
	}

	var active dbus.ObjectPath
	if saved != nil {
		active, err = o.bus.ActivateConnection(ctx, saved.path, PathAny, specificObject)
	} else {
		settings, buildErr := BuildBluetooth(name, bdaddr, role, opts)
		if buildErr != nil {
			return buildErr
		}
		_, active, err = o.bus.AddAndActivateConnection(ctx, settings, PathAny, specificObject)
	}
	if err != nil {
		return WrapDbus(err)
	}
	return o.waiter.WaitConnectionActivation(ctx, active)
}

// --- §4.5.4 WireGuard connect ---

// ConnectWireGuard implements spec §4.5.4, including the post-wait
// re-check: WireGuard may transition briefly to Activated and immediately
// to Deactivated on configuration mismatch (spec §9 open question 2 notes
// the reason is not readable afterward, only carried on the signal, so
// the re-check can only report KindActivationFailed with reason unknown).
func (o *Orchestrator) ConnectWireGuard(ctx context.Context, params WireGuardParams, opts Options) error {
	saved, err := o.findSavedByName(ctx, params.Name)
	if err != nil {
		return err
	}

	var active dbus.ObjectPath
	if saved != nil {
		active, err = o.bus.ActivateConnection(ctx, saved.path, PathAny, PathAny)
		if err != nil {
			return WrapDbus(err)
		}
	} else {
		settings, buildErr := BuildWireGuard(params, opts)
		if buildErr != nil {
			return buildErr
		}
		connPath, addErr := o.bus.AddConnection(ctx, settings)
		if addErr != nil {
			return WrapDbus(addErr)
		}
		active, err = o.bus.ActivateConnection(ctx, connPath, PathAny, PathAny)
		if err != nil {
			return WrapDbus(err)
		}
	}

	if waitErr := o.waiter.WaitConnectionActivation(ctx, active); waitErr != nil {
		return waitErr
	}

	current, err := o.bus.ActiveConnectionProperties(ctx, active)
	if err == nil && current.State == ActiveDeactivated {
		return newReason(KindActivationFailed, 0)
	}
	return nil
}

// --- §4.5.5 Forget ---

// ForgetKind selects which settings-map field Forget matches a target
// against (spec §4.5.5).
type ForgetKind int

const (
	ForgetWifi ForgetKind = iota
	ForgetEthernet
	ForgetBluetooth
	ForgetWireGuard
)

func deviceTypeForForget(kind ForgetKind) (DeviceType, bool) {
	switch kind {
	case ForgetWifi:
		return DeviceWifi, true
	case ForgetEthernet:
		return DeviceEthernet, true
	case ForgetBluetooth:
		return DeviceBluetooth, true
	case ForgetWireGuard:
		return DeviceWireguard, true
	default:
		return DeviceType{}, false
	}
}

// Forget implements spec §4.5.5: it refuses to delete an in-use profile,
// disconnecting first and only deleting once the device confirms it is
// no longer active.
func (o *Orchestrator) Forget(ctx context.Context, kind ForgetKind, name string) error {
	all, err := o.discovery.ListAll(ctx)
	if err != nil {
		return err
	}

	wantType, hasType := deviceTypeForForget(kind)
	for _, d := range all {
		if hasType && d.Type != wantType {
			continue
		}
		if d.ActivePath == "" {
			continue
		}
		inUse := false
		switch kind {
		case ForgetWifi:
			active, err := o.bus.ActiveConnectionProperties(ctx, d.ActivePath)
			if err == nil {
				if b, ok := settingsSSID(o.connSettingsOrNil(ctx, active.Connection)); ok && string(b) == name {
					inUse = true
				}
			}
		case ForgetBluetooth:
			inUse = strings.EqualFold(d.Identity.CurrentMAC, name)
		default:
			inUse = true
		}
		if !inUse {
			continue
		}
		if err := o.bus.DeviceDisconnect(ctx, d.Path); err != nil {
			return WrapDbus(err)
		}
		if err := o.waiter.WaitDeviceDisconnect(ctx, d.Path); err != nil {
			return newDetail(KindStuck, "device did not confirm disconnect: "+err.Error())
		}
		refreshed, err := o.bus.DeviceProperties(ctx, d.Path)
		if err == nil && refreshed.State != StateDisconnected && refreshed.State != StateUnavailable {
			return newDetail(KindStuck, "device still in use after disconnect")
		}
	}

	profiles, err := o.savedProfiles(ctx)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	deleted := 0
	for _, p := range profiles {
		matched := false
		if id, ok := settingsString(p.settings, "connection", "id"); ok && id == name {
			matched = true
		}
		if b, ok := settingsSSID(p.settings); ok && string(b) == name {
			matched = true
		}
		if bdaddr, ok := settingsString(p.settings, "bluetooth", "bdaddr"); ok && strings.EqualFold(bdaddr, name) {
			matched = true
		}
		if !matched {
			continue
		}
		if err := o.bus.DeleteConnection(ctx, p.path); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		deleted++
	}
	if errs.ErrorOrNil() != nil {
		return WrapDbus(errs.ErrorOrNil())
	}
	if deleted == 0 && kind != ForgetBluetooth {
		return newErr(KindNoSavedConnection)
	}
	return nil
}

// --- §4.5.6 Disconnect ---

// Disconnect implements spec §4.5.6: deactivate every active connection
// on every Wi-Fi device and wait for Disconnected; Ok if nothing is
// active.
func (o *Orchestrator) Disconnect(ctx context.Context) error {
	wifiDevices, err := o.discovery.ListWireless(ctx)
	if err != nil {
		return err
	}
	for _, d := range wifiDevices {
		if d.ActivePath == "" {
			continue
		}
		if err := o.bus.DeactivateConnection(ctx, d.ActivePath); err != nil {
			return WrapDbus(err)
		}
		if err := o.waiter.WaitDeviceDisconnect(ctx, d.Path); err != nil {
			return err
		}
	}
	return nil
}

// --- Supplemented features recovered from original_source/ ---

// WifiRadioEnabled reports whether the global Wi-Fi radio is on
// (supplemented feature, recovered from nmrs/src/core/device.rs:
// wifi_enabled — equivalent to the Wi-Fi toggle in system settings).
func (o *Orchestrator) WifiRadioEnabled(ctx context.Context) (bool, error) {
	return o.bus.WirelessEnabled(ctx)
}

// SetWifiRadio turns the global Wi-Fi radio on or off (supplemented
// feature, recovered from nmrs/src/core/device.rs: set_wifi_enabled).
// Disabling it is NetworkManager's own cue to tear down every Wi-Fi
// device; this call does not separately wait for that to happen.
func (o *Orchestrator) SetWifiRadio(ctx context.Context, enabled bool) error {
	return o.bus.SetWirelessEnabled(ctx, enabled)
}

// BluetoothInfo looks up a paired device's display name/alias via BlueZ
// (supplemented feature, recovered from nmrs/src/core/bluetooth.rs:
// populate_bluez_info). NetworkManager's own Bluetooth device object only
// ever carries the BDADDR.
func (o *Orchestrator) BluetoothInfo(ctx context.Context, bdaddr string) (name, alias string, err error) {
	return o.bus.BluezDeviceInfo(ctx, bdaddr)
}

// WireGuardStatus is one row of the VPN inventory (supplemented feature,
// recovered from nmrs/src/core/vpn.rs: list_vpn_connections/get_vpn_info;
// the latter's detail fields are folded into this listing rather than
// kept as a separate single-item lookup).
type WireGuardStatus struct {
	Name      string
	Interface string
	Active    bool
	State     ActiveState
}

// ListWireGuard lists every saved WireGuard profile together with its
// current active state, if any.
func (o *Orchestrator) ListWireGuard(ctx context.Context) ([]WireGuardStatus, error) {
	profiles, err := o.savedProfiles(ctx)
	if err != nil {
		return nil, err
	}

	actives, err := o.bus.ActiveConnections(ctx)
	if err != nil {
		return nil, err
	}
	activeByConn := make(map[dbus.ObjectPath]ActiveConnection, len(actives))
	for _, a := range actives {
		ac, err := o.bus.ActiveConnectionProperties(ctx, a)
		if err != nil {
			continue
		}
		activeByConn[ac.Connection] = ac
	}

	var out []WireGuardStatus
	for _, p := range profiles {
		typ, _ := settingsString(p.settings, "connection", "type")
		if typ != "wireguard" {
			continue
		}
		name, _ := settingsString(p.settings, "connection", "id")
		iface, _ := settingsString(p.settings, "connection", "interface-name")
		status := WireGuardStatus{Name: name, Interface: iface}
		if ac, ok := activeByConn[p.path]; ok {
			status.Active = true
			status.State = ac.State
		}
		out = append(out, status)
	}
	return out, nil
}
