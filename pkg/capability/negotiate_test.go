package capability

import "testing"

func TestIsCompatible(t *testing.T) {
	r := func(minMaj, minMin, maxMaj, maxMin uint8) VersionRange {
		return VersionRange{Min: Version{minMaj, minMin}, Max: Version{maxMaj, maxMin}}
	}
	tests := []struct {
		name      string
		localMAC  VersionRange
		remoteMAC VersionRange
		localPHY  VersionRange
		remotePHY VersionRange
		want      bool
	}{
		{"defaults", DefaultVersionRange, DefaultVersionRange, DefaultVersionRange, DefaultVersionRange, true},
		{"same major", r(1, 0, 1, 3), r(1, 2, 1, 5), DefaultVersionRange, DefaultVersionRange, true},
		{"disjoint MAC major", r(1, 0, 1, 9), r(2, 0, 2, 1), DefaultVersionRange, DefaultVersionRange, false},
		{"disjoint MAC minor", r(1, 0, 1, 1), r(1, 2, 1, 3), DefaultVersionRange, DefaultVersionRange, false},
		{"disjoint PHY", DefaultVersionRange, DefaultVersionRange, r(3, 0, 3, 0), r(1, 0, 2, 9), false},
		{"spanning majors", r(1, 5, 2, 0), r(2, 0, 3, 0), r(1, 0, 2, 0), r(1, 9, 1, 9), true},
		{"minor only decides on equal majors", r(1, 3, 2, 0), r(1, 0, 1, 4), DefaultVersionRange, DefaultVersionRange, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := NewBuilder().MacVersions(tt.localMAC).PhyVersions(tt.localPHY).Build()
			remote := NewBuilder().MacVersions(tt.remoteMAC).PhyVersions(tt.remotePHY).Build()
			if got := IsCompatible(local, remote); got != tt.want {
				t.Errorf("IsCompatible() = %v, want %v", got, tt.want)
			}
			if got := IsCompatible(remote, local); got != tt.want {
				t.Errorf("IsCompatible(reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNegotiate_BothUnknown(t *testing.T) {
	empty := NewBuilder().Build()
	for _, multicast := range []bool{false, true} {
		p := Negotiate(empty, empty, multicast)
		wantSTS := STSConfigDynamic
		if multicast {
			wantSTS = STSConfigDynamicIndividualKey
		}
		if p.Channel != DefaultChannel {
			t.Errorf("multicast=%v: Channel = %d, want %d", multicast, p.Channel, DefaultChannel)
		}
		if p.STSConfig != wantSTS {
			t.Errorf("multicast=%v: STSConfig = %v, want %v", multicast, p.STSConfig, wantSTS)
		}
		if p.RframeConfig != RframeConfigSP3 {
			t.Errorf("multicast=%v: RframeConfig = %v, want SP3", multicast, p.RframeConfig)
		}
		if p.RangingMethod != RangingRoundDSTWRDeferred {
			t.Errorf("multicast=%v: RangingMethod = %v, want DS-TWR-Deferred", multicast, p.RangingMethod)
		}
		if p.HoppingMode || p.BlockStriding {
			t.Errorf("multicast=%v: Hopping/BlockStriding = %v/%v, want false", multicast, p.HoppingMode, p.BlockStriding)
		}
		if p.ConstraintLength != ConstraintLength3 || p.MACAddressMode != MACAddressShort || p.ScheduleMode != ScheduleModeTimeScheduled {
			t.Errorf("multicast=%v: unexpected defaults %v", multicast, p)
		}
	}
}

func TestNegotiate_NilRemote(t *testing.T) {
	local := NewBuilder().Channels([]int{5}).RangingMethod(MethodSSTWRDeferred).Build()
	p := Negotiate(local, nil, false)
	if p.Channel != DefaultChannel {
		t.Errorf("Channel = %d, want %d", p.Channel, DefaultChannel)
	}
	if p.RangingMethod != RangingRoundDSTWRDeferred {
		t.Errorf("RangingMethod = %v, want DS-TWR-Deferred", p.RangingMethod)
	}
}

func TestPreferredChannel(t *testing.T) {
	tests := []struct {
		name   string
		local  Optional[[]int]
		remote Optional[[]int]
		want   int
	}{
		{"both unknown", None[[]int](), None[[]int](), 9},
		{"local unknown", None[[]int](), Some([]int{5, 6}), 9},
		{"remote unknown", Some([]int{5}), None[[]int](), 9},
		{"first local match", Some([]int{12, 5, 9}), Some([]int{9, 5}), 5},
		{"no intersection", Some([]int{5, 6}), Some([]int{8, 10}), 9},
		{"empty list", Some([]int{}), Some([]int{5}), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferredChannel(tt.local, tt.remote); got != tt.want {
				t.Errorf("PreferredChannel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPreferredSTSConfig(t *testing.T) {
	none := None[STSCapabilities]()
	key := Some(STSDynamic | STSDynamicIndividualKey)
	dyn := Some(STSDynamic)
	tests := []struct {
		name      string
		local     Optional[STSCapabilities]
		remote    Optional[STSCapabilities]
		multicast bool
		want      STSConfig
	}{
		{"unicast ignores caps", key, key, false, STSConfigDynamic},
		{"unicast unknown", none, none, false, STSConfigDynamic},
		{"multicast unknown", none, none, true, STSConfigDynamicIndividualKey},
		{"multicast both key", key, key, true, STSConfigDynamicIndividualKey},
		{"multicast remote unknown local key", key, none, true, STSConfigDynamicIndividualKey},
		{"multicast local unknown remote key", none, key, true, STSConfigDynamicIndividualKey},
		{"multicast remote unknown local dyn", dyn, none, true, STSConfigDynamic},
		{"multicast one side lacks key", key, dyn, true, STSConfigDynamic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferredSTSConfig(tt.local, tt.remote, tt.multicast); got != tt.want {
				t.Errorf("PreferredSTSConfig() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreferredRframeConfig(t *testing.T) {
	tests := []struct {
		name   string
		local  Optional[RframeCapabilities]
		remote Optional[RframeCapabilities]
		want   RframeConfig
	}{
		{"unknown", None[RframeCapabilities](), Some(RframeSP0), RframeConfigSP3},
		{"sp3 shared", Some(RframeSP0 | RframeSP3), Some(RframeSP3), RframeConfigSP3},
		{"sp1 shared", Some(RframeSP1 | RframeSP3), Some(RframeSP1 | RframeSP0), RframeConfigSP1},
		{"sp0 shared", Some(RframeSP0 | RframeSP1), Some(RframeSP0), RframeConfigSP0},
		{"nothing shared", Some(RframeSP0), Some(RframeSP1), RframeConfigSP3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferredRframeConfig(tt.local, tt.remote); got != tt.want {
				t.Errorf("PreferredRframeConfig() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreferredRangingMethod(t *testing.T) {
	all := MethodOWRULTDoA | MethodSSTWRDeferred | MethodSSTWRNonDeferred | MethodDSTWRDeferred | MethodDSTWRNonDeferred
	tests := []struct {
		name   string
		local  Optional[RangingMethods]
		remote Optional[RangingMethods]
		want   RangingRoundUsage
	}{
		{"unknown", Some(all), None[RangingMethods](), RangingRoundDSTWRDeferred},
		{"all", Some(all), Some(all), RangingRoundDSTWRDeferred},
		{"ds non-deferred", Some(all &^ MethodDSTWRDeferred), Some(all), RangingRoundDSTWRNonDeferred},
		{"ss deferred", Some(MethodSSTWRDeferred | MethodSSTWRNonDeferred), Some(all), RangingRoundSSTWRDeferred},
		{"ss non-deferred", Some(MethodSSTWRNonDeferred | MethodOWRULTDoA), Some(all), RangingRoundSSTWRNonDeferred},
		{"tdoa", Some(MethodOWRULTDoA), Some(all), RangingRoundDLTDoA},
		{"empty intersection", Some(MethodSSTWRDeferred), Some(MethodDSTWRNonDeferred), RangingRoundDSTWRDeferred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreferredRangingMethod(tt.local, tt.remote); got != tt.want {
				t.Errorf("PreferredRangingMethod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreferredScalars(t *testing.T) {
	if PreferredFlag(Some(true), None[bool]()) {
		t.Error("PreferredFlag(true, unknown) = true, want false")
	}
	if PreferredFlag(Some(true), Some(false)) {
		t.Error("PreferredFlag(true, false) = true, want false")
	}
	if !PreferredFlag(Some(true), Some(true)) {
		t.Error("PreferredFlag(true, true) = false, want true")
	}

	k37 := CCConstraintLengthK3 | CCConstraintLengthK7
	if got := PreferredConstraintLength(Some(k37), Some(CCConstraintLengthK7)); got != ConstraintLength7 {
		t.Errorf("PreferredConstraintLength(K3|K7, K7) = %v, want K7", got)
	}
	if got := PreferredConstraintLength(Some(k37), Some(CCConstraintLengthK3)); got != ConstraintLength3 {
		t.Errorf("PreferredConstraintLength(K3|K7, K3) = %v, want K3", got)
	}
	if got := PreferredConstraintLength(Some(k37), None[uint8]()); got != ConstraintLength3 {
		t.Errorf("PreferredConstraintLength(K3|K7, unknown) = %v, want K3", got)
	}

	if got := PreferredMACAddressMode(Some[uint8](1), Some[uint8](3)); got != MACAddressExtended {
		t.Errorf("PreferredMACAddressMode(1, 3) = %v, want 8-byte", got)
	}
	if got := PreferredMACAddressMode(Some[uint8](1), Some[uint8](0)); got != MACAddressShort {
		t.Errorf("PreferredMACAddressMode(1, 0) = %v, want 2-byte", got)
	}
	if got := PreferredMACAddressMode(None[uint8](), Some[uint8](1)); got != MACAddressShort {
		t.Errorf("PreferredMACAddressMode(unknown, 1) = %v, want 2-byte", got)
	}

	both := ScheduleContentionBased | ScheduleTimeScheduled
	if got := PreferredScheduleMode(Some(both), Some(ScheduleContentionBased)); got != ScheduleModeContention {
		t.Errorf("PreferredScheduleMode(both, contention) = %v, want contention", got)
	}
	if got := PreferredScheduleMode(Some(both), Some(ScheduleTimeScheduled)); got != ScheduleModeTimeScheduled {
		t.Errorf("PreferredScheduleMode(both, time) = %v, want time-scheduled", got)
	}
}

func TestPreferredVersion(t *testing.T) {
	tests := []struct {
		local, remote, want Version
	}{
		{Version{1, 1}, Version{1, 1}, Version{1, 1}},
		{Version{1, 0}, Version{2, 0}, Version{2, 0}},
		{Version{2, 0}, Version{1, 5}, Version{2, 0}},
		{Version{1, 3}, Version{1, 2}, Version{1, 3}},
		{Version{1, 1}, Version{1, 4}, Version{1, 4}},
	}
	for _, tt := range tests {
		if got := PreferredVersion(tt.local, tt.remote); got != tt.want {
			t.Errorf("PreferredVersion(%v, %v) = %v, want %v", tt.local, tt.remote, got, tt.want)
		}
	}
}

// Every combination of present and absent negotiable fields yields a
// parameter set drawn from the documented value space.
func TestNegotiate_Total(t *testing.T) {
	variants := []*Capability{
		NewBuilder().Build(),
		NewBuilder().
			Channels([]int{}).
			STSConfig(0).
			RframeConfig(0).
			RangingMethod(0).
			HoppingMode(false).
			BlockStriding(false).
			CCConstraintLength(0).
			ExtendedMACSupport(0).
			ScheduledMode(0).
			Build(),
		NewBuilder().
			Channels([]int{5, 6, 8, 9, 10, 12, 13, 14}).
			STSConfig(0xFF).
			RframeConfig(0xFF).
			RangingMethod(0xFF).
			HoppingMode(true).
			BlockStriding(true).
			CCConstraintLength(0xFF).
			ExtendedMACSupport(0xFF).
			ScheduledMode(0xFF).
			Build(),
	}
	for i, local := range variants {
		for j, remote := range variants {
			for _, multicast := range []bool{false, true} {
				p := Negotiate(local, remote, multicast)
				if !IsSupportedChannel(p.Channel) {
					t.Errorf("[%d,%d,%v] Channel = %d", i, j, multicast, p.Channel)
				}
				if p.STSConfig != STSConfigDynamic && p.STSConfig != STSConfigDynamicIndividualKey {
					t.Errorf("[%d,%d,%v] STSConfig = %v", i, j, multicast, p.STSConfig)
				}
				if p.RangingMethod < RangingRoundSSTWRDeferred || p.RangingMethod > RangingRoundDLTDoA {
					t.Errorf("[%d,%d,%v] RangingMethod = %v", i, j, multicast, p.RangingMethod)
				}
			}
		}
	}
}
