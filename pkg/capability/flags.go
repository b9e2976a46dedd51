package capability

import (
	"fmt"
	"slices"
	"strings"
)

// Tags of the capability TLV records.
const (
	TagPhyVersionRange    uint8 = 0x80
	TagMacVersionRange    uint8 = 0x81
	TagDeviceRoles        uint8 = 0x82
	TagRangingMethod      uint8 = 0x83
	TagSTSConfig          uint8 = 0x84
	TagMultiNodeMode      uint8 = 0x85
	TagRangingTimeStruct  uint8 = 0x86
	TagScheduledMode      uint8 = 0x87
	TagHoppingMode        uint8 = 0x88
	TagBlockStriding      uint8 = 0x89
	TagUWBInitiationTime  uint8 = 0x8A
	TagChannels           uint8 = 0x8B
	TagRframeConfig       uint8 = 0x8C
	TagCCConstraintLength uint8 = 0x8D
	TagBPRFParameterSets  uint8 = 0x8E
	TagHPRFParameterSets  uint8 = 0x8F
	TagAoASupport         uint8 = 0x90
	TagExtendedMACAddress uint8 = 0x91

	// MaxRecords is the number of distinct capability tags.
	MaxRecords = 18
)

// DeviceRoles is the device-role bitmask.
type DeviceRoles uint8

const (
	RoleResponder DeviceRoles = 0x01
	RoleInitiator DeviceRoles = 0x02
)

// Has reports whether all bits of f are set.
func (d DeviceRoles) Has(f DeviceRoles) bool { return d&f == f }

// RangingMethods is the ranging-method bitmask.
type RangingMethods uint8

const (
	MethodOWRULTDoA        RangingMethods = 0x01
	MethodSSTWRDeferred    RangingMethods = 0x02
	MethodSSTWRNonDeferred RangingMethods = 0x04
	MethodDSTWRDeferred    RangingMethods = 0x08
	MethodDSTWRNonDeferred RangingMethods = 0x10
)

// Has reports whether all bits of f are set.
func (m RangingMethods) Has(f RangingMethods) bool { return m&f == f }

// STSCapabilities is the STS-config bitmask.
type STSCapabilities uint8

const (
	STSStatic               STSCapabilities = 0x01
	STSDynamic              STSCapabilities = 0x02
	STSDynamicIndividualKey STSCapabilities = 0x04
)

// Has reports whether all bits of f are set.
func (s STSCapabilities) Has(f STSCapabilities) bool { return s&f == f }

// MultiNodeModes is the multi-node-mode bitmask.
type MultiNodeModes uint8

const (
	MultiNodeUnicast    MultiNodeModes = 0x01
	MultiNodeOneToMany  MultiNodeModes = 0x02
	MultiNodeManyToMany MultiNodeModes = 0x04
)

// Has reports whether all bits of f are set.
func (m MultiNodeModes) Has(f MultiNodeModes) bool { return m&f == f }

// Ranging time structure bits.
const (
	TimeStructIntervalBased uint8 = 0x01
	TimeStructBlockBased    uint8 = 0x02
)

// Scheduled mode bits.
const (
	ScheduleContentionBased uint8 = 0x01
	ScheduleTimeScheduled   uint8 = 0x02
)

// RframeCapabilities is the Rframe-config bitmask.
type RframeCapabilities uint8

const (
	RframeSP0 RframeCapabilities = 0x01
	RframeSP1 RframeCapabilities = 0x02
	RframeSP3 RframeCapabilities = 0x08
)

// Has reports whether all bits of f are set.
func (r RframeCapabilities) Has(f RframeCapabilities) bool { return r&f == f }

// Convolutional code constraint length bits.
const (
	CCConstraintLengthK3 uint8 = 0x01
	CCConstraintLengthK7 uint8 = 0x02
)

// AoACapabilities is the AoA-support bitmask.
type AoACapabilities uint8

const (
	AoAAzimuth90  AoACapabilities = 0x01
	AoAAzimuth180 AoACapabilities = 0x02
	AoAElevation  AoACapabilities = 0x04
	AoAFoM        AoACapabilities = 0x08
)

// Has reports whether all bits of f are set.
func (a AoACapabilities) Has(f AoACapabilities) bool { return a&f == f }

// BPRFParameterSets is the bitmask of supported BPRF parameter sets; bit n
// is set when SP n+1 is supported.
type BPRFParameterSets uint8

// HPRFParameterSets is the bitmask of supported HPRF parameter sets. Only
// the low eight sets fit the one-octet wire field.
type HPRFParameterSets uint8

// channelBits maps each supported UWB channel to its bit in the channels byte.
var channelBits = []struct {
	channel int
	bit     uint8
}{
	{5, 0x01},
	{6, 0x02},
	{8, 0x04},
	{9, 0x08},
	{10, 0x10},
	{12, 0x20},
	{13, 0x40},
	{14, 0x80},
}

// IsSupportedChannel reports whether ch can be advertised.
func IsSupportedChannel(ch int) bool {
	for _, c := range channelBits {
		if c.channel == ch {
			return true
		}
	}
	return false
}

// supportedChannels returns the advertisable channels of v, first
// occurrence only, keeping their order.
func supportedChannels(v []int) []int {
	out := []int{}
	for _, ch := range v {
		if IsSupportedChannel(ch) && !slices.Contains(out, ch) {
			out = append(out, ch)
		}
	}
	return out
}

func packChannels(channels []int) uint8 {
	var b uint8
	for _, c := range channelBits {
		for _, ch := range channels {
			if ch == c.channel {
				b |= c.bit
				break
			}
		}
	}
	return b
}

func unpackChannels(b uint8) []int {
	channels := []int{}
	for _, c := range channelBits {
		if b&c.bit != 0 {
			channels = append(channels, c.channel)
		}
	}
	return channels
}

func (d DeviceRoles) String() string {
	return flagString(uint8(d), map[uint8]string{
		uint8(RoleResponder): "Responder",
		uint8(RoleInitiator): "Initiator",
	})
}

func (m RangingMethods) String() string {
	return flagString(uint8(m), map[uint8]string{
		uint8(MethodOWRULTDoA):        "OWR-UL-TDoA",
		uint8(MethodSSTWRDeferred):    "SS-TWR-Deferred",
		uint8(MethodSSTWRNonDeferred): "SS-TWR-NonDeferred",
		uint8(MethodDSTWRDeferred):    "DS-TWR-Deferred",
		uint8(MethodDSTWRNonDeferred): "DS-TWR-NonDeferred",
	})
}

func (s STSCapabilities) String() string {
	return flagString(uint8(s), map[uint8]string{
		uint8(STSStatic):               "Static",
		uint8(STSDynamic):              "Dynamic",
		uint8(STSDynamicIndividualKey): "DynamicIndividualKey",
	})
}

// flagString renders the set bits of v, lowest first.
func flagString(v uint8, names map[uint8]string) string {
	if v == 0 {
		return "None"
	}
	var parts []string
	for bit := uint8(1); bit != 0; bit <<= 1 {
		if v&bit == 0 {
			continue
		}
		if name, ok := names[bit]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("0x%02X", bit))
		}
	}
	return strings.Join(parts, "|")
}
