package nm

import "unicode/utf8"

const hiddenNetworkSentinel = "<Hidden Network>"

// DecodeSSIDOrHidden renders raw SSID bytes for display. SSID bytes are
// never assumed UTF-8 outside display paths (spec §3.2); empty or
// non-UTF-8 input renders as a fixed sentinel rather than failing.
func DecodeSSIDOrHidden(b []byte) string {
	if len(b) == 0 || !utf8.Valid(b) {
		return hiddenNetworkSentinel
	}
	return string(b)
}

// ChannelForFrequency maps a Wi-Fi frequency in MHz to its channel number
// per the daemon's band conventions (spec §8.1 "Frequency-to-channel").
// It returns false for frequencies outside any recognized band.
func ChannelForFrequency(mhz int) (int, bool) {
	switch {
	case mhz >= 2412 && mhz <= 2472:
		return (mhz-2412)/5 + 1, true
	case mhz == 2484:
		return 14, true
	case mhz >= 5150 && mhz <= 5925:
		return (mhz - 5000) / 5, true
	case mhz >= 5955 && mhz <= 7115:
		return (mhz-5955)/5 + 1, true
	default:
		return 0, false
	}
}
