package capability

import "fmt"

// RangingRoundUsage is the negotiated ranging method.
type RangingRoundUsage uint8

const (
	RangingRoundSSTWRDeferred    RangingRoundUsage = 1
	RangingRoundDSTWRDeferred    RangingRoundUsage = 2
	RangingRoundSSTWRNonDeferred RangingRoundUsage = 3
	RangingRoundDSTWRNonDeferred RangingRoundUsage = 4
	RangingRoundDLTDoA           RangingRoundUsage = 5
)

// String returns the string representation of the ranging round usage.
func (r RangingRoundUsage) String() string {
	switch r {
	case RangingRoundSSTWRDeferred:
		return "SS-TWR-Deferred"
	case RangingRoundDSTWRDeferred:
		return "DS-TWR-Deferred"
	case RangingRoundSSTWRNonDeferred:
		return "SS-TWR-NonDeferred"
	case RangingRoundDSTWRNonDeferred:
		return "DS-TWR-NonDeferred"
	case RangingRoundDLTDoA:
		return "DL-TDoA"
	default:
		return fmt.Sprintf("RangingRoundUsage(%d)", r)
	}
}

// STSConfig is the negotiated STS mode.
type STSConfig uint8

const (
	STSConfigStatic               STSConfig = 0
	STSConfigDynamic              STSConfig = 1
	STSConfigDynamicIndividualKey STSConfig = 2
)

// String returns the string representation of the STS config.
func (s STSConfig) String() string {
	switch s {
	case STSConfigStatic:
		return "Static"
	case STSConfigDynamic:
		return "Dynamic"
	case STSConfigDynamicIndividualKey:
		return "DynamicIndividualKey"
	default:
		return fmt.Sprintf("STSConfig(%d)", s)
	}
}

// RframeConfig is the negotiated ranging frame format.
type RframeConfig uint8

const (
	RframeConfigSP0 RframeConfig = 0
	RframeConfigSP1 RframeConfig = 1
	RframeConfigSP3 RframeConfig = 3
)

// String returns the string representation of the Rframe config.
func (r RframeConfig) String() string {
	switch r {
	case RframeConfigSP0:
		return "SP0"
	case RframeConfigSP1:
		return "SP1"
	case RframeConfigSP3:
		return "SP3"
	default:
		return fmt.Sprintf("RframeConfig(%d)", r)
	}
}

// MACAddressMode is the negotiated MAC address length.
type MACAddressMode uint8

const (
	MACAddressShort    MACAddressMode = 0
	MACAddressExtended MACAddressMode = 2
)

// String returns the string representation of the MAC address mode.
func (m MACAddressMode) String() string {
	switch m {
	case MACAddressShort:
		return "2-byte"
	case MACAddressExtended:
		return "8-byte"
	default:
		return fmt.Sprintf("MACAddressMode(%d)", m)
	}
}

// ConstraintLength is the negotiated convolutional code constraint length.
type ConstraintLength uint8

const (
	ConstraintLength3 ConstraintLength = 0
	ConstraintLength7 ConstraintLength = 1
)

// String returns the string representation of the constraint length.
func (c ConstraintLength) String() string {
	switch c {
	case ConstraintLength3:
		return "K3"
	case ConstraintLength7:
		return "K7"
	default:
		return fmt.Sprintf("ConstraintLength(%d)", c)
	}
}

// ScheduleMode is the negotiated scheduling mode.
type ScheduleMode uint8

const (
	ScheduleModeContention    ScheduleMode = 0
	ScheduleModeTimeScheduled ScheduleMode = 1
)

// String returns the string representation of the schedule mode.
func (s ScheduleMode) String() string {
	switch s {
	case ScheduleModeContention:
		return "ContentionBased"
	case ScheduleModeTimeScheduled:
		return "TimeScheduled"
	default:
		return fmt.Sprintf("ScheduleMode(%d)", s)
	}
}

// Params is the outcome of reconciling a local and a remote capability.
type Params struct {
	PhyVersion       Version
	MacVersion       Version
	Channel          int
	STSConfig        STSConfig
	RframeConfig     RframeConfig
	RangingMethod    RangingRoundUsage
	MACAddressMode   MACAddressMode
	ScheduleMode     ScheduleMode
	HoppingMode      bool
	BlockStriding    bool
	ConstraintLength ConstraintLength
}

// String returns a single-line summary.
func (p Params) String() string {
	return fmt.Sprintf("Params{PHY: %s, MAC: %s, Channel: %d, STS: %s, Rframe: %s, Method: %s, Addr: %s, Schedule: %s, Hopping: %t, BlockStriding: %t, CC: %s}",
		p.PhyVersion, p.MacVersion, p.Channel, p.STSConfig, p.RframeConfig, p.RangingMethod,
		p.MACAddressMode, p.ScheduleMode, p.HoppingMode, p.BlockStriding, p.ConstraintLength)
}
