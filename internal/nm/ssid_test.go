package nm

import (
	"testing"
	"unicode/utf8"
)

func TestDecodeSSIDOrHidden(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, hiddenNetworkSentinel},
		{"ascii", []byte("CoffeeShop"), "CoffeeShop"},
		{"invalid utf8", []byte{0xff, 0xfe, 0xfd}, hiddenNetworkSentinel},
		{"valid multibyte", []byte("café"), "café"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DecodeSSIDOrHidden(c.in); got != c.want {
				t.Errorf("DecodeSSIDOrHidden(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func FuzzDecodeSSIDOrHidden(f *testing.F) {
	f.Add([]byte("CoffeeShop"))
	f.Add([]byte{})
	f.Add([]byte{0xff, 0xfe})

	f.Fuzz(func(t *testing.T, b []byte) {
		got := DecodeSSIDOrHidden(b)
		wantHidden := len(b) == 0 || !utf8.Valid(b)
		if wantHidden && got != hiddenNetworkSentinel {
			t.Errorf("DecodeSSIDOrHidden(%x) = %q, want hidden sentinel", b, got)
		}
		if !wantHidden && got != string(b) {
			t.Errorf("DecodeSSIDOrHidden(%x) = %q, want exact decode", b, got)
		}
	})
}

func TestChannelForFrequency(t *testing.T) {
	cases := []struct {
		mhz     int
		want    int
		wantOK  bool
	}{
		{2412, 1, true},
		{2437, 6, true},
		{2472, 13, true},
		{2484, 14, true},
		{5180, 36, true},
		{5925, 185, true},
		{5955, 1, true},
		{7115, 233, true},
		{3000, 0, false},
		{5930, 0, false},
	}
	for _, c := range cases {
		got, ok := ChannelForFrequency(c.mhz)
		if ok != c.wantOK || (ok && got != c.want) {
			t.Errorf("ChannelForFrequency(%d) = (%d, %v), want (%d, %v)", c.mhz, got, ok, c.want, c.wantOK)
		}
	}
}
