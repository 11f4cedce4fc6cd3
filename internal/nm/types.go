// Package nm implements the connection-lifecycle core that drives
// NetworkManager over D-Bus: settings construction, device discovery,
// Wi-Fi scan resolution, signal-driven state waits, and the lifecycle
// orchestrator that sequences them into connect/disconnect/forget.
package nm

import "github.com/godbus/dbus/v5"

// DeviceType classifies a managed network endpoint (spec §3.1, §6.3).
type DeviceType struct {
	code int
}

var (
	DeviceEthernet  = DeviceType{1}
	DeviceWifi      = DeviceType{2}
	DeviceBluetooth = DeviceType{5}
	DeviceVlan      = DeviceType{11}
	DeviceBond      = DeviceType{12}
	DeviceBridge    = DeviceType{13}
	DeviceTun       = DeviceType{16}
	DeviceWireguard = DeviceType{29}
	DeviceWifiP2P   = DeviceType{30}
	DeviceLoopback  = DeviceType{32}
)

// DeviceTypeFromCode maps a raw NetworkManager device-type code to a
// DeviceType, preserving unknown codes as Other rather than failing.
func DeviceTypeFromCode(code int) DeviceType {
	return DeviceType{code}
}

// Code returns the raw NetworkManager device-type code. from(c).Code() == c
// for every code, known or unknown (spec §8.1 "code round-trip").
func (t DeviceType) Code() int { return t.code }

// IsOther reports whether this is a code the registry does not recognize.
func (t DeviceType) IsOther() bool {
	_, known := deviceTypeRegistry[t.code]
	return !known
}

func (t DeviceType) String() string {
	if info, ok := deviceTypeRegistry[t.code]; ok {
		return info.DisplayName
	}
	return "Other"
}

// DeviceState mirrors the NM_DEVICE_STATE_* enumeration (spec §3.1, §6.3).
type DeviceState struct {
	code int
}

var (
	StateUnmanaged    = DeviceState{10}
	StateUnavailable  = DeviceState{20}
	StateDisconnected = DeviceState{30}
	StatePrepare      = DeviceState{40}
	StateConfig       = DeviceState{50}
	StateActivated    = DeviceState{100}
	StateDeactivating = DeviceState{110}
	StateFailed       = DeviceState{120}
)

func DeviceStateFromCode(code int) DeviceState { return DeviceState{code} }

func (s DeviceState) Code() int { return s.code }

func (s DeviceState) String() string {
	switch s.code {
	case StateUnmanaged.code:
		return "Unmanaged"
	case StateUnavailable.code:
		return "Unavailable"
	case StateDisconnected.code:
		return "Disconnected"
	case StatePrepare.code:
		return "Prepare"
	case StateConfig.code:
		return "Config"
	case StateActivated.code:
		return "Activated"
	case StateDeactivating.code:
		return "Deactivating"
	case StateFailed.code:
		return "Failed"
	default:
		return "Other"
	}
}

// Terminal reports whether this state ends a state-wait (spec §4.4).
func (s DeviceState) Terminal() bool {
	return s == StateDisconnected || s == StateUnavailable || s == StateActivated || s == StateFailed
}

// ActiveState mirrors NM_ACTIVE_CONNECTION_STATE_* (spec §3.1, §6.3).
type ActiveState struct {
	code int
}

var (
	ActiveUnknown      = ActiveState{0}
	ActiveActivating   = ActiveState{1}
	ActiveActivated    = ActiveState{2}
	ActiveDeactivating = ActiveState{3}
	ActiveDeactivated  = ActiveState{4}
)

func ActiveStateFromCode(code int) ActiveState { return ActiveState{code} }

func (s ActiveState) Code() int { return s.code }

func (s ActiveState) String() string {
	switch s.code {
	case ActiveActivating.code:
		return "Activating"
	case ActiveActivated.code:
		return "Activated"
	case ActiveDeactivating.code:
		return "Deactivating"
	case ActiveDeactivated.code:
		return "Deactivated"
	default:
		return "Unknown"
	}
}

// Terminal reports whether this active-connection state ends a wait
// (spec §3.2: "Activating -> Activated or Activating -> Deactivated are
// terminal for the state-wait engine").
func (s ActiveState) Terminal() bool {
	return s == ActiveActivated || s == ActiveDeactivated
}

// WifiMode mirrors NM_802_11_MODE_* (spec §6.3).
type WifiMode struct {
	code int
}

var (
	WifiModeAdhoc = WifiMode{1}
	WifiModeInfra = WifiMode{2}
	WifiModeAP    = WifiMode{3}
)

func WifiModeFromCode(code int) WifiMode { return WifiMode{code} }
func (m WifiMode) Code() int             { return m.code }

// Identity holds the permanent and currently-in-use hardware address of a
// device (spec §3.1).
type Identity struct {
	PermanentMAC string
	CurrentMAC   string
}

// Device is a managed network endpoint (spec §3.1).
type Device struct {
	Path        dbus.ObjectPath
	Interface   string
	Type        DeviceType
	State       DeviceState
	Managed     bool
	Driver      string
	Identity    Identity
	IPv4        string // CIDR, optional
	IPv6        string // CIDR, optional
	ActivePath  dbus.ObjectPath
}

// AccessPoint is a visible Wi-Fi BSS (spec §3.1).
type AccessPoint struct {
	Path        dbus.ObjectPath
	SSID        []byte
	BSSID       string
	Strength    uint8
	Frequency   uint32
	Flags       uint32
	WpaFlags    uint32
	RsnFlags    uint32
	Mode        WifiMode
}

const (
	apFlagPrivacy  = 0x1
	wpaKeyMgmtPSK  = 0x0100
	wpaKeyMgmtEAP  = 0x0200
)

// Secured reports whether this AP advertises any of WEP/WPA/RSN security.
func (a AccessPoint) Secured() bool {
	return a.Flags&apFlagPrivacy != 0 || a.WpaFlags != 0 || a.RsnFlags != 0
}

// IsPSK reports whether this AP advertises PSK key management in WPA or RSN.
func (a AccessPoint) IsPSK() bool {
	return a.WpaFlags&wpaKeyMgmtPSK != 0 || a.RsnFlags&wpaKeyMgmtPSK != 0
}

// IsEAP reports whether this AP advertises 802.1X/EAP key management.
func (a AccessPoint) IsEAP() bool {
	return a.WpaFlags&wpaKeyMgmtEAP != 0 || a.RsnFlags&wpaKeyMgmtEAP != 0
}

// Network is a logical Wi-Fi target merged from one or more APs sharing the
// same (SSID, frequency) key (spec §3.1, §3.2).
type Network struct {
	SSID      []byte
	BSSID     string
	Strength  uint8
	Frequency uint32
	Secured   bool
	IsPSK     bool
	IsEAP     bool
	IPv4      string
	IPv6      string
}

// NetworkKey is the (SSID-as-string, frequency) dedup key (spec §3.2).
type NetworkKey struct {
	SSID      string
	Frequency uint32
}

func keyFor(ap AccessPoint) NetworkKey {
	return NetworkKey{SSID: string(ap.SSID), Frequency: ap.Frequency}
}

// SavedProfile is a persisted connection template (spec §3.1).
type SavedProfile struct {
	Path     dbus.ObjectPath
	Settings SettingsMap
}

// ActiveConnection is a live instantiation of a saved profile (spec §3.1).
type ActiveConnection struct {
	Path       dbus.ObjectPath
	State      ActiveState
	Connection dbus.ObjectPath
	Devices    []dbus.ObjectPath
	Ip4Config  dbus.ObjectPath
	Ip6Config  dbus.ObjectPath
}

// Credential is the credential variant a connect Request carries (spec §3.1,
// §4.5.1).
type Credential interface {
	isCredential()
}

// Open is the credential variant for an unsecured Wi-Fi network.
type Open struct{}

func (Open) isCredential() {}

// WpaPsk is the credential variant for WPA-personal Wi-Fi.
type WpaPsk struct {
	PSK string
}

func (WpaPsk) isCredential() {}

// EapPhase2 enumerates supported 802.1X phase-2 authentication methods.
type EapPhase2 string

const (
	Phase2Mschapv2 EapPhase2 = "mschapv2"
	Phase2Pap      EapPhase2 = "pap"
)

// EapMethod enumerates supported outer EAP methods.
type EapMethod string

const (
	EapPeap EapMethod = "peap"
	EapTtls EapMethod = "ttls"
)

// WpaEapOptions carries the enterprise Wi-Fi credential bundle (spec §4.1,
// §6.4).
type WpaEapOptions struct {
	Method             EapMethod
	Identity           string
	Password           string
	AnonymousIdentity  string
	Phase2             EapPhase2
	SystemCACerts      bool
	CACertPath         string // must be file://... when set
	DomainSuffixMatch  string
}

// WpaEap is the credential variant for enterprise Wi-Fi.
type WpaEap struct {
	Options WpaEapOptions
}

func (WpaEap) isCredential() {}

// Options carries the per-request tuning knobs of spec §6.4.
type Options struct {
	Autoconnect         bool
	AutoconnectPriority int32
	AutoconnectRetries  int32
}

// Request is a user-issued connect/disconnect/forget operation (spec §3.1).
type Request struct {
	Target     string // SSID, interface name, BDADDR, or profile name
	Credential Credential
	Options    Options
}
