// Package nmfake implements an in-memory nm.Bus double for exercising
// Discovery, the Scanner, the StateWaiter, the Orchestrator, and the
// Monitor without a real system bus, mirroring the call-recording and
// fault-injection double used for the engine's controllers.
package nmfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"nmctl/internal/nmfake/fault"

	"nmctl/internal/nm"
)

// Fault injection points, named after the Bus method they guard.
const (
	FaultDevices                  = "bus.devices"
	FaultDeviceProperties          = "bus.device_properties"
	FaultDeviceDisconnect          = "bus.device_disconnect"
	FaultWirelessAccessPoints      = "bus.wireless_access_points"
	FaultAccessPointProperties     = "bus.access_point_properties"
	FaultRequestScan               = "bus.request_scan"
	FaultActiveConnections         = "bus.active_connections"
	FaultActiveConnectionProps     = "bus.active_connection_properties"
	FaultActivateConnection        = "bus.activate_connection"
	FaultAddAndActivateConnection  = "bus.add_and_activate_connection"
	FaultDeactivateConnection      = "bus.deactivate_connection"
	FaultListConnections           = "bus.list_connections"
	FaultConnectionSettings        = "bus.connection_settings"
	FaultAddConnection             = "bus.add_connection"
	FaultDeleteConnection          = "bus.delete_connection"
	FaultWirelessEnabled           = "bus.wireless_enabled"
	FaultSetWirelessEnabled        = "bus.set_wireless_enabled"
	FaultBluezDeviceInfo           = "bus.bluez_device_info"
)

// bluezInfo is the seeded display metadata for one paired Bluetooth
// device, keyed by BDADDR.
type bluezInfo struct {
	name  string
	alias string
}

var _ nm.Bus = (*Bus)(nil)

// Bus is the fake nm.Bus. All state is in-memory; tests seed devices,
// access points, and saved connections directly, then drive state
// transitions with the Push* helpers to simulate daemon signals.
type Bus struct {
	CallRecorder
	faults *fault.Injector

	mu          sync.Mutex
	devices     map[dbus.ObjectPath]nm.Device
	deviceAPs   map[dbus.ObjectPath][]dbus.ObjectPath
	aps         map[dbus.ObjectPath]nm.AccessPoint
	actives     map[dbus.ObjectPath]nm.ActiveConnection
	connections map[dbus.ObjectPath]nm.SettingsMap

	deviceSubs   map[dbus.ObjectPath][]*deviceStateSub
	activeSubs   map[dbus.ObjectPath][]*activeStateSub
	topologySubs []*topologySub
	apSubs       map[dbus.ObjectPath][]*accessPointSub

	wirelessEnabled bool
	bluezDevices    map[string]bluezInfo

	nextPath int
}

// New constructs an empty fake Bus.
func New() *Bus {
	return &Bus{
		faults:      fault.NewInjector(),
		devices:     map[dbus.ObjectPath]nm.Device{},
		deviceAPs:   map[dbus.ObjectPath][]dbus.ObjectPath{},
		aps:         map[dbus.ObjectPath]nm.AccessPoint{},
		actives:     map[dbus.ObjectPath]nm.ActiveConnection{},
		connections: map[dbus.ObjectPath]nm.SettingsMap{},
		deviceSubs:  map[dbus.ObjectPath][]*deviceStateSub{},
		activeSubs:  map[dbus.ObjectPath][]*activeStateSub{},
		apSubs:      map[dbus.ObjectPath][]*accessPointSub{},
		wirelessEnabled: true,
		bluezDevices:    map[string]bluezInfo{},
	}
}

// SetBluezInfo seeds the display name/alias BluezDeviceInfo returns for
// bdaddr, simulating a device BlueZ has paired and exported.
func (b *Bus) SetBluezInfo(bdaddr, name, alias string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bluezDevices[bdaddr] = bluezInfo{name: name, alias: alias}
}

func (b *Bus) FailOnce(point string, err error)      { b.faults.FailOnce(point, err) }
func (b *Bus) FailAlways(point string, err error)     { b.faults.FailAlways(point, err) }
func (b *Bus) SetHook(point string, hook fault.Hook)  { b.faults.SetHook(point, hook) }
func (b *Bus) ClearFault(point string)                { b.faults.Clear(point) }
func (b *Bus) ResetFaults()                           { b.faults.Reset() }

func (b *Bus) nextObjectPath(prefix string) dbus.ObjectPath {
	b.nextPath++
	return dbus.ObjectPath(fmt.Sprintf("/fake/%s/%d", prefix, b.nextPath))
}

// --- seeding helpers (called by tests, not part of nm.Bus) ---

// AddDevice registers a device, assigning it a path if unset.
func (b *Bus) AddDevice(d nm.Device) nm.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d.Path == "" {
		d.Path = b.nextObjectPath("device")
	}
	b.devices[d.Path] = d
	return d
}

// AddAccessPoint registers an AP visible from device.
func (b *Bus) AddAccessPoint(device dbus.ObjectPath, ap nm.AccessPoint) nm.AccessPoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ap.Path == "" {
		ap.Path = b.nextObjectPath("ap")
	}
	b.aps[ap.Path] = ap
	b.deviceAPs[device] = append(b.deviceAPs[device], ap.Path)
	return ap
}

// SeedConnection pre-populates a saved profile at a given path.
func (b *Bus) SeedConnection(settings nm.SettingsMap) dbus.ObjectPath {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.nextObjectPath("connection")
	b.connections[p] = settings
	return p
}

// PushDeviceState updates a device's stored state and notifies every
// subscriber, simulating the daemon's StateChanged signal.
func (b *Bus) PushDeviceState(path dbus.ObjectPath, newState nm.DeviceState, reason int) {
	b.mu.Lock()
	d, ok := b.devices[path]
	old := d.State
	if ok {
		d.State = newState
		b.devices[path] = d
	}
	subs := append([]*deviceStateSub(nil), b.deviceSubs[path]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.push(nm.DeviceStateChange{New: newState, Old: old, Reason: reason})
	}
}

// PushActiveState updates an active connection's stored state and
// notifies every subscriber.
func (b *Bus) PushActiveState(path dbus.ObjectPath, newState nm.ActiveState, reason int) {
	b.mu.Lock()
	a, ok := b.actives[path]
	if ok {
		a.State = newState
		b.actives[path] = a
	}
	subs := append([]*activeStateSub(nil), b.activeSubs[path]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.push(nm.ActiveStateChange{State: newState, Reason: reason})
	}
}

// PushAccessPointEvent notifies every access-point subscriber on device.
func (b *Bus) PushAccessPointEvent(device dbus.ObjectPath, kind nm.AccessPointEventKind, ap dbus.ObjectPath) {
	b.mu.Lock()
	subs := append([]*accessPointSub(nil), b.apSubs[device]...)
	b.mu.Unlock()
	for _, s := range subs {
		s.push(nm.AccessPointEvent{Kind: kind, Path: ap})
	}
}

// PushTopologyEvent notifies every topology subscriber.
func (b *Bus) PushTopologyEvent(ev nm.TopologyEvent) {
	b.mu.Lock()
	subs := append([]*topologySub(nil), b.topologySubs...)
	b.mu.Unlock()
	for _, s := range subs {
		s.push(ev)
	}
}

// --- nm.Bus implementation ---

func (b *Bus) Devices(ctx context.Context) ([]dbus.ObjectPath, error) {
	b.record("Devices")
	if err := b.faults.Eval(FaultDevices); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]dbus.ObjectPath, 0, len(b.devices))
	for p := range b.devices {
		out = append(out, p)
	}
	return out, nil
}

func (b *Bus) DeviceProperties(ctx context.Context, path dbus.ObjectPath) (nm.Device, error) {
	b.record("DeviceProperties", path)
	if err := b.faults.Eval(FaultDeviceProperties, path); err != nil {
		return nm.Device{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[path]
	if !ok {
		return nm.Device{}, &nm.Error{Kind: nm.KindNotFound}
	}
	return d, nil
}

func (b *Bus) DeviceDisconnect(ctx context.Context, path dbus.ObjectPath) error {
	b.record("DeviceDisconnect", path)
	if err := b.faults.Eval(FaultDeviceDisconnect, path); err != nil {
		return err
	}
	b.mu.Lock()
	d, ok := b.devices[path]
	if ok {
		d.State = nm.StateDeactivating
		b.devices[path] = d
	}
	b.mu.Unlock()
	return nil
}

func (b *Bus) WirelessAccessPoints(ctx context.Context, device dbus.ObjectPath) ([]dbus.ObjectPath, error) {
	b.record("WirelessAccessPoints", device)
	if err := b.faults.Eval(FaultWirelessAccessPoints, device); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dbus.ObjectPath(nil), b.deviceAPs[device]...), nil
}

func (b *Bus) AccessPointProperties(ctx context.Context, path dbus.ObjectPath) (nm.AccessPoint, error) {
	b.record("AccessPointProperties", path)
	if err := b.faults.Eval(FaultAccessPointProperties, path); err != nil {
		return nm.AccessPoint{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ap, ok := b.aps[path]
	if !ok {
		return nm.AccessPoint{}, &nm.Error{Kind: nm.KindNotFound}
	}
	return ap, nil
}

func (b *Bus) RequestScan(ctx context.Context, device dbus.ObjectPath) error {
	b.record("RequestScan", device)
	return b.faults.Eval(FaultRequestScan, device)
}

func (b *Bus) ActiveConnections(ctx context.Context) ([]dbus.ObjectPath, error) {
	b.record("ActiveConnections")
	if err := b.faults.Eval(FaultActiveConnections); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]dbus.ObjectPath, 0, len(b.actives))
	for p := range b.actives {
		out = append(out, p)
	}
	return out, nil
}

func (b *Bus) ActiveConnectionProperties(ctx context.Context, path dbus.ObjectPath) (nm.ActiveConnection, error) {
	b.record("ActiveConnectionProperties", path)
	if err := b.faults.Eval(FaultActiveConnectionProps, path); err != nil {
		return nm.ActiveConnection{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.actives[path]
	if !ok {
		return nm.ActiveConnection{}, &nm.Error{Kind: nm.KindNotFound}
	}
	return a, nil
}

func (b *Bus) ActivateConnection(ctx context.Context, conn, device, specificObject dbus.ObjectPath) (dbus.ObjectPath, error) {
	b.record("ActivateConnection", conn, device, specificObject)
	if err := b.faults.Eval(FaultActivateConnection, conn, device, specificObject); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	activePath := b.nextObjectPath("active")
	b.actives[activePath] = nm.ActiveConnection{
		Path:       activePath,
		State:      nm.ActiveActivating,
		Connection: conn,
		Devices:    []dbus.ObjectPath{device},
	}
	if d, ok := b.devices[device]; ok {
		d.ActivePath = activePath
		b.devices[device] = d
	}
	return activePath, nil
}

func (b *Bus) AddAndActivateConnection(ctx context.Context, settings nm.SettingsMap, device, specificObject dbus.ObjectPath) (dbus.ObjectPath, dbus.ObjectPath, error) {
	b.record("AddAndActivateConnection", settings, device, specificObject)
	if err := b.faults.Eval(FaultAddAndActivateConnection, settings, device, specificObject); err != nil {
		return "", "", err
	}
	b.mu.Lock()
	connPath := b.nextObjectPath("connection")
	b.connections[connPath] = settings
	b.mu.Unlock()

	activePath, err := b.ActivateConnection(ctx, connPath, device, specificObject)
	if err != nil {
		return "", "", err
	}
	return connPath, activePath, nil
}

func (b *Bus) DeactivateConnection(ctx context.Context, active dbus.ObjectPath) error {
	b.record("DeactivateConnection", active)
	if err := b.faults.Eval(FaultDeactivateConnection, active); err != nil {
		return err
	}
	b.mu.Lock()
	a, ok := b.actives[active]
	if ok {
		a.State = nm.ActiveDeactivating
		b.actives[active] = a
	}
	b.mu.Unlock()
	return nil
}

func (b *Bus) ListConnections(ctx context.Context) ([]dbus.ObjectPath, error) {
	b.record("ListConnections")
	if err := b.faults.Eval(FaultListConnections); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]dbus.ObjectPath, 0, len(b.connections))
	for p := range b.connections {
		out = append(out, p)
	}
	return out, nil
}

func (b *Bus) ConnectionSettings(ctx context.Context, path dbus.ObjectPath) (nm.SettingsMap, error) {
	b.record("ConnectionSettings", path)
	if err := b.faults.Eval(FaultConnectionSettings, path); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.connections[path]
	if !ok {
		return nil, &nm.Error{Kind: nm.KindNotFound}
	}
	return s, nil
}

func (b *Bus) AddConnection(ctx context.Context, settings nm.SettingsMap) (dbus.ObjectPath, error) {
	b.record("AddConnection", settings)
	if err := b.faults.Eval(FaultAddConnection, settings); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.nextObjectPath("connection")
	b.connections[p] = settings
	return p, nil
}

func (b *Bus) DeleteConnection(ctx context.Context, path dbus.ObjectPath) error {
	b.record("DeleteConnection", path)
	if err := b.faults.Eval(FaultDeleteConnection, path); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.connections[path]; !ok {
		return &nm.Error{Kind: nm.KindNotFound}
	}
	delete(b.connections, path)
	return nil
}

func (b *Bus) WirelessEnabled(ctx context.Context) (bool, error) {
	b.record("WirelessEnabled")
	if err := b.faults.Eval(FaultWirelessEnabled); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wirelessEnabled, nil
}

func (b *Bus) SetWirelessEnabled(ctx context.Context, enabled bool) error {
	b.record("SetWirelessEnabled", enabled)
	if err := b.faults.Eval(FaultSetWirelessEnabled, enabled); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wirelessEnabled = enabled
	return nil
}

func (b *Bus) BluezDeviceInfo(ctx context.Context, bdaddr string) (string, string, error) {
	b.record("BluezDeviceInfo", bdaddr)
	if err := b.faults.Eval(FaultBluezDeviceInfo, bdaddr); err != nil {
		return "", "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	info := b.bluezDevices[bdaddr]
	return info.name, info.alias, nil
}
