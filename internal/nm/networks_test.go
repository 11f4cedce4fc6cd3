package nm

import "testing"

func dualBandAPs() []AccessPoint {
	return []AccessPoint{
		{SSID: []byte("MyWiFi"), Frequency: 2437, Strength: 40, BSSID: "aa:aa:aa:aa:aa:01"},
		{SSID: []byte("MyWiFi"), Frequency: 5180, Strength: 70, BSSID: "aa:aa:aa:aa:aa:02"},
		{SSID: []byte("MyWiFi"), Frequency: 2437, Strength: 60, BSSID: "aa:aa:aa:aa:aa:03"},
	}
}

// TestMergeAccessPointsDualBandDedup is seed scenario 5: three APs sharing
// an SSID across two bands collapse to exactly two Networks, one per
// frequency, each carrying the strongest observed signal for that band.
func TestMergeAccessPointsDualBandDedup(t *testing.T) {
	networks := MergeAccessPoints(dualBandAPs())
	if len(networks) != 2 {
		t.Fatalf("MergeAccessPoints() returned %d networks, want 2", len(networks))
	}

	byFreq := map[uint32]Network{}
	for _, n := range networks {
		byFreq[n.Frequency] = n
	}

	band24, ok := byFreq[2437]
	if !ok {
		t.Fatal("missing 2.4 GHz entry")
	}
	if band24.Strength != 60 {
		t.Errorf("2.4 GHz entry strength = %d, want 60", band24.Strength)
	}

	band5, ok := byFreq[5180]
	if !ok {
		t.Fatal("missing 5 GHz entry")
	}
	if band5.Strength != 70 {
		t.Errorf("5 GHz entry strength = %d, want 70", band5.Strength)
	}
}

// TestMergeAccessPointsCommutative checks the order-independence law of
// the merge: any permutation of the same AP set yields the same strength
// and security OR across every key.
func TestMergeAccessPointsCommutative(t *testing.T) {
	aps := []AccessPoint{
		{SSID: []byte("net"), Frequency: 2412, Strength: 10},
		{SSID: []byte("net"), Frequency: 2412, Strength: 80, WpaFlags: wpaKeyMgmtPSK},
		{SSID: []byte("net"), Frequency: 2412, Strength: 50, RsnFlags: wpaKeyMgmtEAP},
	}
	reversed := []AccessPoint{aps[2], aps[0], aps[1]}

	a := MergeAccessPoints(aps)
	b := MergeAccessPoints(reversed)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected single merged network from both orders, got %d and %d", len(a), len(b))
	}
	if a[0].Strength != b[0].Strength || a[0].Strength != 80 {
		t.Errorf("strength mismatch: order1=%d order2=%d want 80", a[0].Strength, b[0].Strength)
	}
	if a[0].IsPSK != b[0].IsPSK || !a[0].IsPSK {
		t.Errorf("IsPSK mismatch: order1=%v order2=%v want true", a[0].IsPSK, b[0].IsPSK)
	}
	if a[0].IsEAP != b[0].IsEAP || !a[0].IsEAP {
		t.Errorf("IsEAP mismatch: order1=%v order2=%v want true", a[0].IsEAP, b[0].IsEAP)
	}
}
