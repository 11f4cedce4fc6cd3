package nm

import (
	"context"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Discovery enumerates and classifies managed devices (spec §4.2).
type Discovery struct {
	bus Bus
}

// NewDiscovery constructs a Discovery over the given Bus.
func NewDiscovery(bus Bus) *Discovery {
	return &Discovery{bus: bus}
}

// ListAll queries every device and its properties. Missing optional
// properties degrade to zero values without failing the listing; a
// device missing Interface or DeviceType is dropped and logged (spec
// §4.2 "Failure semantics").
func (d *Discovery) ListAll(ctx context.Context) ([]Device, error) {
	paths, err := d.bus.Devices(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		dev, err := d.bus.DeviceProperties(ctx, p)
		if err != nil {
			slog.Warn("device discovery: skipping device with unreadable properties", "path", p, "error", err)
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func filterByType(devices []Device, t DeviceType) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// ListWireless returns only Wi-Fi devices.
func (d *Discovery) ListWireless(ctx context.Context) ([]Device, error) {
	all, err := d.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterByType(all, DeviceWifi), nil
}

// ListWired returns only Ethernet devices.
func (d *Discovery) ListWired(ctx context.Context) ([]Device, error) {
	all, err := d.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterByType(all, DeviceEthernet), nil
}

// ListBluetooth returns only Bluetooth devices.
func (d *Discovery) ListBluetooth(ctx context.Context) ([]Device, error) {
	all, err := d.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterByType(all, DeviceBluetooth), nil
}

// ByInterface resolves an interface name to its device path.
func (d *Discovery) ByInterface(ctx context.Context, name string) (dbus.ObjectPath, error) {
	all, err := d.ListAll(ctx)
	if err != nil {
		return "", err
	}
	for _, dev := range all {
		if dev.Interface == name {
			return dev.Path, nil
		}
	}
	return "", newErr(KindNotFound)
}
