package nm

// MergeAccessPoints deduplicates a list of APs by (SSID, frequency),
// keeping the strongest signal per key and OR-ing the secured/PSK/EAP
// flags across all APs that share the key (spec §3.2, §8.1 "Network
// merge commutativity" — each key's strength and flags do not depend on
// input order). Networks are returned in the order their keys were first
// seen, and among APs of equal strength the first one seen supplies the
// BSSID.
func MergeAccessPoints(aps []AccessPoint) []Network {
	order := make([]NetworkKey, 0, len(aps))
	byKey := make(map[NetworkKey]*Network, len(aps))

	for _, ap := range aps {
		k := keyFor(ap)
		existing, ok := byKey[k]
		if !ok {
			n := &Network{
				SSID:      append([]byte(nil), ap.SSID...),
				BSSID:     ap.BSSID,
				Strength:  ap.Strength,
				Frequency: ap.Frequency,
				Secured:   ap.Secured(),
				IsPSK:     ap.IsPSK(),
				IsEAP:     ap.IsEAP(),
			}
			byKey[k] = n
			order = append(order, k)
			continue
		}
		existing.Secured = existing.Secured || ap.Secured()
		existing.IsPSK = existing.IsPSK || ap.IsPSK()
		existing.IsEAP = existing.IsEAP || ap.IsEAP()
		if ap.Strength > existing.Strength {
			existing.Strength = ap.Strength
			existing.BSSID = ap.BSSID
			existing.Frequency = ap.Frequency
		}
	}

	out := make([]Network, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}
