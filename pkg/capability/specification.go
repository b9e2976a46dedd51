package capability

// RoleSupport is the radio's per-role support bitmask. A FiRa device role
// combines a controller/controlee side with an initiator/responder side.
type RoleSupport uint8

const (
	ControleeResponder  RoleSupport = 0x01
	ControleeInitiator  RoleSupport = 0x02
	ControllerResponder RoleSupport = 0x04
	ControllerInitiator RoleSupport = 0x08
)

// Has reports whether all bits of f are set.
func (r RoleSupport) Has(f RoleSupport) bool { return r&f == f }

// RangingRoundSupport is the radio's ranging-round bitmask.
type RangingRoundSupport uint8

const (
	RoundDSTWR RangingRoundSupport = 0x01
	RoundSSTWR RangingRoundSupport = 0x02
)

// Has reports whether all bits of f are set.
func (r RangingRoundSupport) Has(f RangingRoundSupport) bool { return r&f == f }

// PSDUDataRates is the radio's supported PSDU data-rate bitmask.
type PSDUDataRates uint8

const (
	PSDU6M81 PSDUDataRates = 0x01
	PSDU7M80 PSDUDataRates = 0x02
	PSDU27M2 PSDUDataRates = 0x04
	PSDU31M2 PSDUDataRates = 0x08
)

// Specification is the FiRa capability report of the local radio.
type Specification struct {
	PhyVersions VersionRange
	MacVersions VersionRange

	Roles             RoleSupport
	RangingRounds     RangingRoundSupport
	NonDeferredMode   bool
	STS               STSCapabilities
	MultiNode         MultiNodeModes
	BlockStriding     bool
	InitiationTime    bool
	Channels          []int
	Rframe            RframeCapabilities
	PSDUDataRates     PSDUDataRates
	BPRFParameterSets BPRFParameterSets
	HPRFParameterSets HPRFParameterSets
	AoA               AoACapabilities
}

// FromSpecification builds the capability this device advertises from its
// radio's report. Zero version ranges are replaced with the 1.1 default.
func FromSpecification(s Specification) *Capability {
	b := NewBuilder()
	if s.PhyVersions != (VersionRange{}) {
		b.PhyVersions(s.PhyVersions)
	}
	if s.MacVersions != (VersionRange{}) {
		b.MacVersions(s.MacVersions)
	}
	return b.
		DeviceRoles(deviceRoles(s.Roles)).
		RangingMethod(rangingMethods(s.RangingRounds, s.NonDeferredMode)).
		STSConfig(s.STS).
		MultiNodeMode(s.MultiNode).
		BlockStriding(s.BlockStriding).
		UWBInitiationTime(s.InitiationTime).
		Channels(s.Channels).
		RframeConfig(s.Rframe).
		CCConstraintLength(ccConstraintLength(s.PSDUDataRates)).
		BPRFParameterSets(s.BPRFParameterSets).
		HPRFParameterSets(s.HPRFParameterSets).
		AoASupport(s.AoA).
		Build()
}

// deviceRoles advertises a role only when both the controller and the
// controlee variant of it are supported.
func deviceRoles(r RoleSupport) DeviceRoles {
	var d DeviceRoles
	if r.Has(ControleeResponder | ControllerResponder) {
		d |= RoleResponder
	}
	if r.Has(ControleeInitiator | ControllerInitiator) {
		d |= RoleInitiator
	}
	return d
}

func rangingMethods(r RangingRoundSupport, nonDeferred bool) RangingMethods {
	var m RangingMethods
	if r.Has(RoundDSTWR) {
		m |= MethodDSTWRDeferred
		if nonDeferred {
			m |= MethodDSTWRNonDeferred
		}
	}
	if r.Has(RoundSSTWR) {
		m |= MethodSSTWRDeferred
		if nonDeferred {
			m |= MethodSSTWRNonDeferred
		}
	}
	return m
}

// ccConstraintLength maps data rates to constraint lengths: 6.81 and 27.2
// Mbps use K3, 7.8 and 31.2 Mbps use K7. No rates at all means K3.
func ccConstraintLength(rates PSDUDataRates) uint8 {
	var cc uint8
	if rates == 0 || rates&(PSDU6M81|PSDU27M2) != 0 {
		cc |= CCConstraintLengthK3
	}
	if rates&(PSDU7M80|PSDU31M2) != 0 {
		cc |= CCConstraintLengthK7
	}
	return cc
}
