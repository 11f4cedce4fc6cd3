package nm

import "testing"

func TestDecideWifiAction(t *testing.T) {
	cases := []struct {
		name        string
		savedExists bool
		cred        Credential
		want        SavedAction
	}{
		{"saved + non-empty psk rebuilds", true, WpaPsk{PSK: "newpass"}, ActionRebuildFresh},
		{"saved + empty psk uses saved", true, WpaPsk{PSK: ""}, ActionUseSaved},
		{"saved + open uses saved", true, Open{}, ActionUseSaved},
		{"saved + eap uses saved", true, WpaEap{}, ActionUseSaved},
		{"no saved + empty psk fails", false, WpaPsk{PSK: ""}, ActionFail},
		{"no saved + non-empty psk rebuilds", false, WpaPsk{PSK: "newpass"}, ActionRebuildFresh},
		{"no saved + open rebuilds", false, Open{}, ActionRebuildFresh},
		{"no saved + eap rebuilds", false, WpaEap{}, ActionRebuildFresh},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DecideWifiAction(c.savedExists, c.cred); got != c.want {
				t.Errorf("DecideWifiAction(%v, %T) = %v, want %v", c.savedExists, c.cred, got, c.want)
			}
		})
	}
}
