package nm

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"nmctl/internal/dbusx"
)

// busImpl is the production Bus, carrying every call through the IPC
// Proxy Layer (internal/dbusx) to the real NetworkManager daemon (spec
// §6.1).
type busImpl struct {
	conn *dbusx.Conn
}

// NewBus wraps a dial'd dbusx.Conn as the domain-level Bus the rest of
// this package programs against.
func NewBus(conn *dbusx.Conn) Bus {
	return &busImpl{conn: conn}
}

func (b *busImpl) nm() dbusx.Object {
	return b.conn.Object(BusName, PathNetworkManager)
}

func (b *busImpl) settings() dbusx.Object {
	return b.conn.Object(BusName, PathSettings)
}

func (b *busImpl) obj(path dbus.ObjectPath) dbusx.Object {
	return b.conn.Object(BusName, path)
}

func (b *busImpl) Devices(ctx context.Context) ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	if err := b.nm().Call(ctx, IfaceNetworkManager, "GetDevices", nil, &paths); err != nil {
		return nil, WrapDbusOperation("GetDevices", err)
	}
	return paths, nil
}

func (b *busImpl) DeviceProperties(ctx context.Context, path dbus.ObjectPath) (Device, error) {
	props, err := b.obj(path).GetAllProperties(ctx, IfaceDevice)
	if err != nil {
		return Device{}, WrapDbusOperation("Device.GetAll", err)
	}

	d := Device{Path: path}
	if v, ok := props["Interface"]; ok {
		d.Interface, _ = v.Value().(string)
	} else {
		return Device{}, WrapDbusOperation("Device.Interface", fmt.Errorf("missing required property"))
	}
	if v, ok := props["DeviceType"]; ok {
		if code, ok2 := v.Value().(uint32); ok2 {
			d.Type = DeviceTypeFromCode(int(code))
		}
	} else {
		return Device{}, WrapDbusOperation("Device.DeviceType", fmt.Errorf("missing required property"))
	}
	if v, ok := props["State"]; ok {
		if code, ok2 := v.Value().(uint32); ok2 {
			d.State = DeviceStateFromCode(int(code))
		}
	}
	if v, ok := props["Managed"]; ok {
		d.Managed, _ = v.Value().(bool)
	}
	if v, ok := props["Driver"]; ok {
		d.Driver, _ = v.Value().(string)
	}
	if v, ok := props["PermHwAddress"]; ok {
		d.Identity.PermanentMAC, _ = v.Value().(string)
	}
	if v, ok := props["HwAddress"]; ok {
		d.Identity.CurrentMAC, _ = v.Value().(string)
	}
	if v, ok := props["ActiveConnection"]; ok {
		if p, ok2 := v.Value().(dbus.ObjectPath); ok2 {
			d.ActivePath = p
		}
	}
	return d, nil
}

func (b *busImpl) DeviceDisconnect(ctx context.Context, path dbus.ObjectPath) error {
	if err := b.obj(path).Call(ctx, IfaceDevice, "Disconnect", nil); err != nil {
		return WrapDbusOperation("Device.Disconnect", err)
	}
	return nil
}

func (b *busImpl) WirelessAccessPoints(ctx context.Context, device dbus.ObjectPath) ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	if err := b.obj(device).Call(ctx, IfaceDeviceWireless, "GetAllAccessPoints", nil, &paths); err != nil {
		return nil, WrapDbusOperation("Wireless.GetAllAccessPoints", err)
	}
	return paths, nil
}

func (b *busImpl) AccessPointProperties(ctx context.Context, path dbus.ObjectPath) (AccessPoint, error) {
	props, err := b.obj(path).GetAllProperties(ctx, IfaceAccessPoint)
	if err != nil {
		return AccessPoint{}, WrapDbusOperation("AccessPoint.GetAll", err)
	}
	ap := AccessPoint{Path: path}
	if v, ok := props["Ssid"]; ok {
		ap.SSID, _ = v.Value().([]byte)
	}
	if v, ok := props["HwAddress"]; ok {
		ap.BSSID, _ = v.Value().(string)
	}
	if v, ok := props["Strength"]; ok {
		ap.Strength, _ = v.Value().(uint8)
	}
	if v, ok := props["Frequency"]; ok {
		f, _ := v.Value().(uint32)
		ap.Frequency = f
	}
	if v, ok := props["Flags"]; ok {
		ap.Flags, _ = v.Value().(uint32)
	}
	if v, ok := props["WpaFlags"]; ok {
		ap.WpaFlags, _ = v.Value().(uint32)
	}
	if v, ok := props["RsnFlags"]; ok {
		ap.RsnFlags, _ = v.Value().(uint32)
	}
	if v, ok := props["Mode"]; ok {
		if code, ok2 := v.Value().(uint32); ok2 {
			ap.Mode = WifiModeFromCode(int(code))
		}
	}
	return ap, nil
}

func (b *busImpl) RequestScan(ctx context.Context, device dbus.ObjectPath) error {
	empty := map[string]dbus.Variant{}
	if err := b.obj(device).Call(ctx, IfaceDeviceWireless, "RequestScan", []any{empty}); err != nil {
		return WrapDbusOperation("Wireless.RequestScan", err)
	}
	return nil
}

func (b *busImpl) ActiveConnections(ctx context.Context) ([]dbus.ObjectPath, error) {
	v, err := b.nm().GetProperty(ctx, IfaceNetworkManager, "ActiveConnections")
	if err != nil {
		return nil, WrapDbusOperation("NetworkManager.ActiveConnections", err)
	}
	paths, _ := v.Value().([]dbus.ObjectPath)
	return paths, nil
}

func (b *busImpl) ActiveConnectionProperties(ctx context.Context, path dbus.ObjectPath) (ActiveConnection, error) {
	props, err := b.obj(path).GetAllProperties(ctx, IfaceConnectionActive)
	if err != nil {
		return ActiveConnection{}, WrapDbusOperation("Connection.Active.GetAll", err)
	}
	ac := ActiveConnection{Path: path}
	if v, ok := props["State"]; ok {
		if code, ok2 := v.Value().(uint32); ok2 {
			ac.State = ActiveStateFromCode(int(code))
		}
	}
	if v, ok := props["Connection"]; ok {
		ac.Connection, _ = v.Value().(dbus.ObjectPath)
	}
	if v, ok := props["Devices"]; ok {
		ac.Devices, _ = v.Value().([]dbus.ObjectPath)
	}
	if v, ok := props["Ip4Config"]; ok {
		ac.Ip4Config, _ = v.Value().(dbus.ObjectPath)
	}
	if v, ok := props["Ip6Config"]; ok {
		ac.Ip6Config, _ = v.Value().(dbus.ObjectPath)
	}
	return ac, nil
}

func (b *busImpl) ActivateConnection(ctx context.Context, conn, device, specificObject dbus.ObjectPath) (dbus.ObjectPath, error) {
	var active dbus.ObjectPath
	err := b.nm().Call(ctx, IfaceNetworkManager, "ActivateConnection",
		[]any{conn, device, specificObject}, &active)
	if err != nil {
		return "", WrapDbusOperation("ActivateConnection", err)
	}
	return active, nil
}

func (b *busImpl) AddAndActivateConnection(ctx context.Context, settings SettingsMap, device, specificObject dbus.ObjectPath) (dbus.ObjectPath, dbus.ObjectPath, error) {
	var connPath, activePath dbus.ObjectPath
	err := b.nm().Call(ctx, IfaceNetworkManager, "AddAndActivateConnection",
		[]any{settings.ToVariantMap(), device, specificObject}, &connPath, &activePath)
	if err != nil {
		return "", "", WrapDbusOperation("AddAndActivateConnection", err)
	}
	return connPath, activePath, nil
}

func (b *busImpl) DeactivateConnection(ctx context.Context, active dbus.ObjectPath) error {
	if err := b.nm().Call(ctx, IfaceNetworkManager, "DeactivateConnection", []any{active}); err != nil {
		return WrapDbusOperation("DeactivateConnection", err)
	}
	return nil
}

func (b *busImpl) ListConnections(ctx context.Context) ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	if err := b.settings().Call(ctx, IfaceSettings, "ListConnections", nil, &paths); err != nil {
		return nil, WrapDbusOperation("Settings.ListConnections", err)
	}
	return paths, nil
}

func (b *busImpl) ConnectionSettings(ctx context.Context, path dbus.ObjectPath) (SettingsMap, error) {
	var raw map[string]map[string]dbus.Variant
	if err := b.obj(path).Call(ctx, IfaceSettingsConnection, "GetSettings", nil, &raw); err != nil {
		return nil, WrapDbusOperation("Settings.Connection.GetSettings", err)
	}
	out := make(SettingsMap, len(raw))
	for section, fields := range raw {
		f := make(map[string]any, len(fields))
		for k, v := range fields {
			f[k] = v.Value()
		}
		out[section] = f
	}
	return out, nil
}

func (b *busImpl) AddConnection(ctx context.Context, settings SettingsMap) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	if err := b.settings().Call(ctx, IfaceSettings, "AddConnection", []any{settings.ToVariantMap()}, &path); err != nil {
		return "", WrapDbusOperation("Settings.AddConnection", err)
	}
	return path, nil
}

func (b *busImpl) DeleteConnection(ctx context.Context, path dbus.ObjectPath) error {
	if err := b.obj(path).Call(ctx, IfaceSettingsConnection, "Delete", nil); err != nil {
		return WrapDbusOperation("Settings.Connection.Delete", err)
	}
	return nil
}

func (b *busImpl) WirelessEnabled(ctx context.Context) (bool, error) {
	v, err := b.nm().GetProperty(ctx, IfaceNetworkManager, "WirelessEnabled")
	if err != nil {
		return false, WrapDbusOperation("NetworkManager.WirelessEnabled", err)
	}
	enabled, _ := v.Value().(bool)
	return enabled, nil
}

func (b *busImpl) SetWirelessEnabled(ctx context.Context, enabled bool) error {
	if err := b.nm().SetProperty(ctx, IfaceNetworkManager, "WirelessEnabled", enabled); err != nil {
		return WrapDbusOperation("NetworkManager.WirelessEnabled", err)
	}
	return nil
}

func (b *busImpl) BluezDeviceInfo(ctx context.Context, bdaddr string) (string, string, error) {
	obj := b.conn.Object(BluezBusName, bluetoothSpecificObject(bdaddr))
	props, err := obj.GetAllProperties(ctx, IfaceBluezDevice)
	if err != nil {
		// A device BlueZ doesn't export (unpaired, adapter down) is not a
		// failure here: the caller only wants display metadata.
		return "", "", nil
	}
	name, _ := props["Name"].Value().(string)
	alias, _ := props["Alias"].Value().(string)
	return name, alias, nil
}
