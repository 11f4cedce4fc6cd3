package nm

import "github.com/godbus/dbus/v5"

// Daemon RPC surface consumed (spec §6.1).
const (
	BusName = "org.freedesktop.NetworkManager"

	PathNetworkManager dbus.ObjectPath = "/org/freedesktop/NetworkManager"
	PathSettings       dbus.ObjectPath = "/org/freedesktop/NetworkManager/Settings"

	IfaceNetworkManager       = "org.freedesktop.NetworkManager"
	IfaceDevice               = "org.freedesktop.NetworkManager.Device"
	IfaceDeviceWireless       = "org.freedesktop.NetworkManager.Device.Wireless"
	IfaceDeviceBluetooth      = "org.freedesktop.NetworkManager.Device.Bluetooth"
	IfaceAccessPoint          = "org.freedesktop.NetworkManager.AccessPoint"
	IfaceConnectionActive     = "org.freedesktop.NetworkManager.Connection.Active"
	IfaceSettings             = "org.freedesktop.NetworkManager.Settings"
	IfaceSettingsConnection   = "org.freedesktop.NetworkManager.Settings.Connection"

	// BlueZ is a separate D-Bus service; BluezDeviceInfo dials it directly
	// rather than through NetworkManager, which never exposes a paired
	// device's display name (spec §6.1 "org.bluez.Device1").
	BluezBusName     = "org.bluez"
	IfaceBluezDevice = "org.bluez.Device1"
)

// Object path "/" tells the daemon to auto-select the device or
// specific-object for a method call (spec §4.5.3, §4.5.4).
const PathAny dbus.ObjectPath = "/"
