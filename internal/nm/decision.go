package nm

// SavedAction is the outcome of the pure saved-vs-fresh decision (spec
// §4.5.1, §8.1 "Saved-decision purity").
type SavedAction int

const (
	ActionUseSaved SavedAction = iota
	ActionRebuildFresh
	ActionFail
)

// DecideWifiAction is the pure function of (saved presence, credential
// variant, PSK emptiness) from spec §4.5.1's decision table:
//
//	saved exists, PSK non-empty  -> RebuildFresh (updating password)
//	saved exists, PSK empty/EAP/Open -> UseSaved
//	no saved, PSK empty          -> Fail(NoSavedConnection)
//	no saved, anything else      -> RebuildFresh
func DecideWifiAction(savedExists bool, cred Credential) SavedAction {
	psk, isPSK := cred.(WpaPsk)
	pskNonEmpty := isPSK && psk.PSK != ""
	pskEmpty := isPSK && psk.PSK == ""

	if savedExists {
		if pskNonEmpty {
			return ActionRebuildFresh
		}
		return ActionUseSaved
	}
	if pskEmpty {
		return ActionFail
	}
	return ActionRebuildFresh
}
