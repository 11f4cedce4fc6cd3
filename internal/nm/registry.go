package nm

// DeviceTypeInfo is the static metadata the registry carries per device
// type code (spec §9 "Registry pattern for device types").
type DeviceTypeInfo struct {
	DisplayName         string
	ConnectionType      string
	CanScan             bool
	NeedsSpecificObject bool
	GlobalToggle        bool
}

var otherDeviceTypeInfo = DeviceTypeInfo{
	DisplayName:    "Other",
	ConnectionType: "",
}

// deviceTypeRegistry is the lazily-populated-at-init, immutable-thereafter
// table mapping numeric device-type code to metadata. Unknown codes are
// not breaking changes: DeviceTypeInfo falls through to generic defaults.
var deviceTypeRegistry = map[int]DeviceTypeInfo{
	DeviceEthernet.code: {
		DisplayName:    "Ethernet",
		ConnectionType: "802-3-ethernet",
	},
	DeviceWifi.code: {
		DisplayName:         "Wi-Fi",
		ConnectionType:      "802-11-wireless",
		CanScan:             true,
		NeedsSpecificObject: true,
		GlobalToggle:        true,
	},
	DeviceBluetooth.code: {
		DisplayName:    "Bluetooth",
		ConnectionType: "bluetooth",
	},
	DeviceVlan.code: {
		DisplayName:    "VLAN",
		ConnectionType: "vlan",
	},
	DeviceBond.code: {
		DisplayName:    "Bond",
		ConnectionType: "bond",
	},
	DeviceBridge.code: {
		DisplayName:    "Bridge",
		ConnectionType: "bridge",
	},
	DeviceTun.code: {
		DisplayName:    "TUN",
		ConnectionType: "tun",
	},
	DeviceWireguard.code: {
		DisplayName:    "WireGuard",
		ConnectionType: "wireguard",
	},
	DeviceWifiP2P.code: {
		DisplayName:    "Wi-Fi P2P",
		ConnectionType: "802-11-wireless",
	},
	DeviceLoopback.code: {
		DisplayName:    "Loopback",
		ConnectionType: "",
	},
}

// DeviceTypeInfoFor returns the registry metadata for a device type code,
// falling through to generic defaults for codes the registry does not
// recognize (spec §9).
func DeviceTypeInfoFor(t DeviceType) DeviceTypeInfo {
	if info, ok := deviceTypeRegistry[t.code]; ok {
		return info
	}
	return otherDeviceTypeInfo
}
