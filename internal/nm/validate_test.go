package nm

import "testing"

func validKey(n int) string {
	s := make([]byte, n)
	for i := range s {
		s[i] = wgBase64Alphabet[i%len(wgBase64Alphabet)]
	}
	return string(s)
}

func TestValidateWGKeyRejects(t *testing.T) {
	if err := validateWGKey("key", validKey(44)); err != nil {
		t.Fatalf("44-char base64 key should be valid, got %v", err)
	}
	if err := validateWGKey("key", validKey(39)); err == nil {
		t.Fatal("39-char key should be rejected (too short)")
	}
	if err := validateWGKey("key", validKey(51)); err == nil {
		t.Fatal("51-char key should be rejected (too long)")
	}
	if err := validateWGKey("key", validKey(44)+"!"); err == nil {
		t.Fatal("key with non-base64 character should be rejected")
	}
}

func TestValidateCIDRRejects(t *testing.T) {
	cases := []struct {
		name string
		addr string
		ok   bool
	}{
		{"valid ipv4", "10.0.0.1/24", true},
		{"no slash", "10.0.0.1", false},
		{"ipv4 octet too large", "10.0.0.999/24", false},
		{"ipv4 prefix too large", "10.0.0.1/99", false},
		{"generic prefix too large", "fd00::1/200", false},
		{"valid ipv6", "fd00::1/64", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := validateCIDR("address", c.addr)
			if (err == nil) != c.ok {
				t.Errorf("validateCIDR(%q) err = %v, want ok=%v", c.addr, err, c.ok)
			}
		})
	}
}

func TestValidateGatewayRejects(t *testing.T) {
	cases := []struct {
		name     string
		endpoint string
		ok       bool
	}{
		{"valid", "vpn.example.com:51820", true},
		{"no colon", "vpn.example.com", false},
		{"port zero", "vpn.example.com:0", false},
		{"port too large", "vpn.example.com:70000", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := validateGateway("gateway", c.endpoint)
			if (err == nil) != c.ok {
				t.Errorf("validateGateway(%q) err = %v, want ok=%v", c.endpoint, err, c.ok)
			}
		})
	}
}

func TestBuildEthernetRejectsEmptyName(t *testing.T) {
	if _, err := BuildEthernet("", Options{}); err == nil {
		t.Fatal("empty interface name should be rejected")
	}
}

func TestBuildWireGuardRejectsEmptyPeers(t *testing.T) {
	params := WireGuardParams{
		Name:       "TestVPN",
		PrivateKey: validKey(44),
		Address:    "10.6.0.2/24",
	}
	if _, err := BuildWireGuard(params, Options{}); err == nil {
		t.Fatal("empty peers list should be rejected")
	}
}

func TestBuildWireGuardRejectsPeerWithEmptyAllowedIPs(t *testing.T) {
	params := WireGuardParams{
		Name:       "TestVPN",
		PrivateKey: validKey(44),
		Address:    "10.6.0.2/24",
		Peers: []WireGuardPeer{
			{PublicKey: validKey(44)},
		},
	}
	if _, err := BuildWireGuard(params, Options{}); err == nil {
		t.Fatal("peer with empty allowed-ips should be rejected")
	}
}

// TestBuildWireGuardRejectsGatewayWithoutPort is seed scenario 4: a peer
// endpoint missing a port fails validation before any IPC is attempted.
func TestBuildWireGuardRejectsGatewayWithoutPort(t *testing.T) {
	params := WireGuardParams{
		Name:       "TestVPN",
		PrivateKey: validKey(44),
		Address:    "10.6.0.2/24",
		Peers: []WireGuardPeer{
			{PublicKey: validKey(44), Endpoint: "vpn.example.com", AllowedIPs: []string{"0.0.0.0/0"}},
		},
	}
	_, err := BuildWireGuard(params, Options{})
	if err == nil {
		t.Fatal("gateway without port should be rejected")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if ve.Field != "peers.endpoint" {
		t.Errorf("ValidationError.Field = %q, want peers.endpoint", ve.Field)
	}
}

func FuzzValidateWGKey(f *testing.F) {
	f.Add(validKey(44))
	f.Add("")
	f.Add("not-base64-at-all!!")
	f.Add(validKey(32))

	f.Fuzz(func(t *testing.T, key string) {
		err := validateWGKey("key", key)
		if err == nil && (len(key) < 40 || len(key) > 50 || !isWGBase64(key)) {
			t.Errorf("validateWGKey(%q) accepted an invalid key", key)
		}
	})
}

func FuzzValidateCIDR(f *testing.F) {
	f.Add("10.0.0.1/24")
	f.Add("not-an-address")
	f.Add("10.0.0.1/")
	f.Add("fd00::1/64")

	f.Fuzz(func(t *testing.T, addr string) {
		host, prefix, err := validateCIDR("address", addr)
		if err != nil {
			return
		}
		if host == "" {
			t.Errorf("validateCIDR(%q) accepted with empty host", addr)
		}
		if prefix < 0 || prefix > 128 {
			t.Errorf("validateCIDR(%q) accepted out-of-range prefix %d", addr, prefix)
		}
	})
}
