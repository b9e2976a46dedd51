package capability

// DefaultChannel is used whenever channel negotiation has no better answer.
const DefaultChannel = 9

// IsCompatible reports whether local and remote share at least one PHY
// version and at least one MAC version.
func IsCompatible(local, remote *Capability) bool {
	return local.macVersions.Overlaps(remote.macVersions) &&
		local.phyVersions.Overlaps(remote.phyVersions)
}

// PreferredVersion returns the larger of the two minimum versions, the
// lowest version both sides claim to support.
func PreferredVersion(localMin, remoteMin Version) Version {
	if localMin.Compare(remoteMin) < 0 {
		return remoteMin
	}
	return localMin
}

// PreferredChannel picks the session channel. When either list is unknown
// the default channel is used. Otherwise the first local channel the remote
// also supports wins, falling back to the default channel.
func PreferredChannel(local, remote Optional[[]int]) int {
	l, lok := local.Get()
	r, rok := remote.Get()
	if !lok || !rok {
		return DefaultChannel
	}
	for _, ch := range l {
		for _, rc := range r {
			if ch == rc {
				return ch
			}
		}
	}
	return DefaultChannel
}

// PreferredSTSConfig picks the STS mode. Unicast sessions always use dynamic
// STS. Multicast sessions use per-controlee keys when both sides support
// them, or when one side is unknown and the other supports them.
func PreferredSTSConfig(local, remote Optional[STSCapabilities], multicast bool) STSConfig {
	if !multicast {
		return STSConfigDynamic
	}
	l, lok := local.Get()
	r, rok := remote.Get()
	switch {
	case !lok && !rok:
		return STSConfigDynamicIndividualKey
	case !rok && l.Has(STSDynamicIndividualKey),
		!lok && r.Has(STSDynamicIndividualKey),
		lok && rok && l.Has(STSDynamicIndividualKey) && r.Has(STSDynamicIndividualKey):
		return STSConfigDynamicIndividualKey
	default:
		return STSConfigDynamic
	}
}

// PreferredRframeConfig picks SP3, then SP1, then SP0 from the formats both
// sides support. SP3 is also used when either side is unknown or nothing is
// shared.
func PreferredRframeConfig(local, remote Optional[RframeCapabilities]) RframeConfig {
	l, lok := local.Get()
	r, rok := remote.Get()
	if !lok || !rok {
		return RframeConfigSP3
	}
	common := l & r
	switch {
	case common.Has(RframeSP3):
		return RframeConfigSP3
	case common.Has(RframeSP1):
		return RframeConfigSP1
	case common.Has(RframeSP0):
		return RframeConfigSP0
	default:
		return RframeConfigSP3
	}
}

// rangingMethodPriority lists ranging methods best first.
var rangingMethodPriority = []struct {
	method RangingMethods
	usage  RangingRoundUsage
}{
	{MethodDSTWRDeferred, RangingRoundDSTWRDeferred},
	{MethodDSTWRNonDeferred, RangingRoundDSTWRNonDeferred},
	{MethodSSTWRDeferred, RangingRoundSSTWRDeferred},
	{MethodSSTWRNonDeferred, RangingRoundSSTWRNonDeferred},
	{MethodOWRULTDoA, RangingRoundDLTDoA},
}

// PreferredRangingMethod picks the best ranging method both sides support,
// defaulting to DS-TWR deferred.
func PreferredRangingMethod(local, remote Optional[RangingMethods]) RangingRoundUsage {
	l, lok := local.Get()
	r, rok := remote.Get()
	if !lok || !rok {
		return RangingRoundDSTWRDeferred
	}
	common := l & r
	for _, p := range rangingMethodPriority {
		if common.Has(p.method) {
			return p.usage
		}
	}
	return RangingRoundDSTWRDeferred
}

// PreferredFlag is the AND of two optional flags; unknown counts as false.
// It negotiates both hopping mode and block striding.
func PreferredFlag(local, remote Optional[bool]) bool {
	return local.OrElse(false) && remote.OrElse(false)
}

// PreferredConstraintLength uses K7 only when both sides advertise it.
func PreferredConstraintLength(local, remote Optional[uint8]) ConstraintLength {
	l, lok := local.Get()
	r, rok := remote.Get()
	if lok && rok && l&r&CCConstraintLengthK7 != 0 {
		return ConstraintLength7
	}
	return ConstraintLength3
}

// PreferredMACAddressMode uses extended addresses only when both sides
// advertise non-zero extended MAC support.
func PreferredMACAddressMode(local, remote Optional[uint8]) MACAddressMode {
	if local.OrElse(0) != 0 && remote.OrElse(0) != 0 {
		return MACAddressExtended
	}
	return MACAddressShort
}

// PreferredScheduleMode uses contention-based ranging only when both sides
// share the contention-based bit.
func PreferredScheduleMode(local, remote Optional[uint8]) ScheduleMode {
	l, lok := local.Get()
	r, rok := remote.Get()
	if lok && rok && l&r&ScheduleContentionBased != 0 {
		return ScheduleModeContention
	}
	return ScheduleModeTimeScheduled
}

// Negotiate reconciles local with remote into session parameters. A nil
// remote is treated as a peer that advertised nothing beyond the default
// versions. A nil local is treated the same way.
func Negotiate(local, remote *Capability, multicast bool) Params {
	if local == nil {
		local = NewBuilder().Build()
	}
	if remote == nil {
		remote = NewBuilder().Build()
	}
	return Params{
		PhyVersion:       PreferredVersion(local.phyVersions.Min, remote.phyVersions.Min),
		MacVersion:       PreferredVersion(local.macVersions.Min, remote.macVersions.Min),
		Channel:          PreferredChannel(local.channels, remote.channels),
		STSConfig:        PreferredSTSConfig(local.stsConfig, remote.stsConfig, multicast),
		RframeConfig:     PreferredRframeConfig(local.rframeConfig, remote.rframeConfig),
		RangingMethod:    PreferredRangingMethod(local.rangingMethod, remote.rangingMethod),
		MACAddressMode:   PreferredMACAddressMode(local.extendedMACSupport, remote.extendedMACSupport),
		ScheduleMode:     PreferredScheduleMode(local.scheduledMode, remote.scheduledMode),
		HoppingMode:      PreferredFlag(local.hoppingMode, remote.hoppingMode),
		BlockStriding:    PreferredFlag(local.blockStriding, remote.blockStriding),
		ConstraintLength: PreferredConstraintLength(local.ccConstraintLength, remote.ccConstraintLength),
	}
}
