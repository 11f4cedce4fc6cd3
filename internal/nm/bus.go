package nm

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// Bus is the domain-level view of the IPC Proxy Layer that Discovery,
// Scan & Resolver, the State-Wait Engine, the Orchestrator, and the
// Monitor Fan-out all program against. It exists so those components can
// be exercised in tests against internal/nmfake without a real system
// bus, while the production implementation (busImpl, in busimpl.go)
// carries every call through internal/dbusx.
type Bus interface {
	Devices(ctx context.Context) ([]dbus.ObjectPath, error)
	DeviceProperties(ctx context.Context, path dbus.ObjectPath) (Device, error)
	DeviceDisconnect(ctx context.Context, path dbus.ObjectPath) error

	WirelessAccessPoints(ctx context.Context, device dbus.ObjectPath) ([]dbus.ObjectPath, error)
	AccessPointProperties(ctx context.Context, path dbus.ObjectPath) (AccessPoint, error)
	RequestScan(ctx context.Context, device dbus.ObjectPath) error

	ActiveConnections(ctx context.Context) ([]dbus.ObjectPath, error)
	ActiveConnectionProperties(ctx context.Context, path dbus.ObjectPath) (ActiveConnection, error)

	ActivateConnection(ctx context.Context, conn, device, specificObject dbus.ObjectPath) (dbus.ObjectPath, error)
	AddAndActivateConnection(ctx context.Context, settings SettingsMap, device, specificObject dbus.ObjectPath) (connPath, activePath dbus.ObjectPath, err error)
	DeactivateConnection(ctx context.Context, active dbus.ObjectPath) error

	ListConnections(ctx context.Context) ([]dbus.ObjectPath, error)
	ConnectionSettings(ctx context.Context, path dbus.ObjectPath) (SettingsMap, error)
	AddConnection(ctx context.Context, settings SettingsMap) (dbus.ObjectPath, error)
	DeleteConnection(ctx context.Context, path dbus.ObjectPath) error

	// WirelessEnabled and SetWirelessEnabled expose NetworkManager's global
	// Wi-Fi radio switch (spec §6.1, §9 "WirelessEnabled").
	WirelessEnabled(ctx context.Context) (bool, error)
	SetWirelessEnabled(ctx context.Context, enabled bool) error

	// BluezDeviceInfo looks up a paired device's display name/alias
	// directly from BlueZ, since NetworkManager's own Bluetooth device
	// object carries only the BDADDR. A device BlueZ doesn't know about
	// (not paired, adapter down) yields empty strings, not an error —
	// this is cosmetic metadata, never a precondition for connecting.
	BluezDeviceInfo(ctx context.Context, bdaddr string) (name, alias string, err error)

	SubscribeDeviceState(ctx context.Context, device dbus.ObjectPath) (DeviceStateSub, error)
	SubscribeActiveState(ctx context.Context, active dbus.ObjectPath) (ActiveStateSub, error)
	SubscribeTopology(ctx context.Context) (TopologySub, error)
	SubscribeAccessPoints(ctx context.Context, device dbus.ObjectPath) (AccessPointSub, error)
}

// DeviceStateChange is one StateChanged(new, old, reason) signal from a
// NM.Device object (spec §6.1).
type DeviceStateChange struct {
	New    DeviceState
	Old    DeviceState
	Reason int
}

// DeviceStateSub is the scoped stream of state changes for one device
// (spec §3.3 "State-Wait subscriptions are scoped resources").
type DeviceStateSub interface {
	Changes() <-chan DeviceStateChange
	Close()
}

// ActiveStateChange is one StateChanged(state, reason) signal from a
// NM.Connection.Active object (spec §6.1).
type ActiveStateChange struct {
	State  ActiveState
	Reason int
}

// ActiveStateSub is the scoped stream of state changes for one active
// connection.
type ActiveStateSub interface {
	Changes() <-chan ActiveStateChange
	Close()
}

// TopologyEventKind distinguishes the daemon-level events the Monitor
// Fan-out relays (spec §4.6).
type TopologyEventKind int

const (
	DeviceAddedEvent TopologyEventKind = iota
	DeviceRemovedEvent
	GlobalStateChangedEvent
	DeviceStateChangedEvent
)

// TopologyEvent is one daemon- or device-level topology signal.
type TopologyEvent struct {
	Kind   TopologyEventKind
	Path   dbus.ObjectPath
}

// TopologySub is the merged stream of DeviceAdded/DeviceRemoved/
// StateChanged events the Monitor Fan-out subscribes to (spec §4.6
// "monitor_device_changes").
type TopologySub interface {
	Events() <-chan TopologyEvent
	Close()
}

// AccessPointEventKind distinguishes AP added/removed signals.
type AccessPointEventKind int

const (
	AccessPointAddedEvent AccessPointEventKind = iota
	AccessPointRemovedEvent
)

// AccessPointEvent is one AccessPointAdded/Removed signal from a Wi-Fi
// device (spec §4.6 "monitor_network_changes").
type AccessPointEvent struct {
	Kind AccessPointEventKind
	Path dbus.ObjectPath
}

// AccessPointSub is the stream of AP add/remove events for one Wi-Fi
// device.
type AccessPointSub interface {
	Events() <-chan AccessPointEvent
	Close()
}
