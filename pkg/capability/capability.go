package capability

import (
	"fmt"
	"strings"
)

// Capability is one device's advertised UWB capability set.
// It is immutable once built; use a Builder to create one.
type Capability struct {
	phyVersions VersionRange
	macVersions VersionRange

	deviceRoles        Optional[DeviceRoles]
	rangingMethod      Optional[RangingMethods]
	stsConfig          Optional[STSCapabilities]
	multiNodeMode      Optional[MultiNodeModes]
	rangingTimeStruct  Optional[uint8]
	scheduledMode      Optional[uint8]
	hoppingMode        Optional[bool]
	blockStriding      Optional[bool]
	uwbInitiationTime  Optional[bool]
	channels           Optional[[]int]
	rframeConfig       Optional[RframeCapabilities]
	ccConstraintLength Optional[uint8]
	bprfParameterSets  Optional[BPRFParameterSets]
	hprfParameterSets  Optional[HPRFParameterSets]
	aoaSupport         Optional[AoACapabilities]
	extendedMACSupport Optional[uint8]
}

// PhyVersions returns the supported PHY version range.
func (c *Capability) PhyVersions() VersionRange { return c.phyVersions }

// MacVersions returns the supported MAC version range.
func (c *Capability) MacVersions() VersionRange { return c.macVersions }

func (c *Capability) DeviceRoles() Optional[DeviceRoles] { return c.deviceRoles }
func (c *Capability) RangingMethod() Optional[RangingMethods] { return c.rangingMethod }
func (c *Capability) STSConfig() Optional[STSCapabilities] { return c.stsConfig }
func (c *Capability) MultiNodeMode() Optional[MultiNodeModes] { return c.multiNodeMode }
func (c *Capability) RangingTimeStruct() Optional[uint8] { return c.rangingTimeStruct }
func (c *Capability) ScheduledMode() Optional[uint8] { return c.scheduledMode }
func (c *Capability) HoppingMode() Optional[bool] { return c.hoppingMode }
func (c *Capability) BlockStriding() Optional[bool] { return c.blockStriding }
func (c *Capability) UWBInitiationTime() Optional[bool] { return c.uwbInitiationTime }
func (c *Capability) RframeConfig() Optional[RframeCapabilities] { return c.rframeConfig }
func (c *Capability) CCConstraintLength() Optional[uint8] { return c.ccConstraintLength }
func (c *Capability) BPRFParameterSets() Optional[BPRFParameterSets] { return c.bprfParameterSets }
func (c *Capability) HPRFParameterSets() Optional[HPRFParameterSets] { return c.hprfParameterSets }
func (c *Capability) AoASupport() Optional[AoACapabilities] { return c.aoaSupport }
func (c *Capability) ExtendedMACSupport() Optional[uint8] { return c.extendedMACSupport }

// Channels returns a copy of the supported channel list.
func (c *Capability) Channels() Optional[[]int] {
	ch, ok := c.channels.Get()
	if !ok {
		return None[[]int]()
	}
	return Some(append([]int(nil), ch...))
}

// String returns a summary of the present fields.
func (c *Capability) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Capability{PHY: %s, MAC: %s", c.phyVersions, c.macVersions)
	if v, ok := c.deviceRoles.Get(); ok {
		fmt.Fprintf(&b, ", Roles: %s", v)
	}
	if v, ok := c.rangingMethod.Get(); ok {
		fmt.Fprintf(&b, ", Methods: %s", v)
	}
	if v, ok := c.stsConfig.Get(); ok {
		fmt.Fprintf(&b, ", STS: %s", v)
	}
	if v, ok := c.channels.Get(); ok {
		fmt.Fprintf(&b, ", Channels: %v", v)
	}
	if v, ok := c.rframeConfig.Get(); ok {
		fmt.Fprintf(&b, ", Rframe: 0x%02X", uint8(v))
	}
	b.WriteString("}")
	return b.String()
}

// Builder assembles a Capability. Version ranges default to 1.1; every
// other field starts absent.
type Builder struct {
	c Capability
}

// NewBuilder creates a Builder with default version ranges.
func NewBuilder() *Builder {
	return &Builder{c: Capability{
		phyVersions: DefaultVersionRange,
		macVersions: DefaultVersionRange,
	}}
}

func (b *Builder) PhyVersions(r VersionRange) *Builder {
	b.c.phyVersions = r
	return b
}

func (b *Builder) MacVersions(r VersionRange) *Builder {
	b.c.macVersions = r
	return b
}

func (b *Builder) DeviceRoles(v DeviceRoles) *Builder {
	b.c.deviceRoles = Some(v)
	return b
}

func (b *Builder) RangingMethod(v RangingMethods) *Builder {
	b.c.rangingMethod = Some(v)
	return b
}

func (b *Builder) STSConfig(v STSCapabilities) *Builder {
	b.c.stsConfig = Some(v)
	return b
}

func (b *Builder) MultiNodeMode(v MultiNodeModes) *Builder {
	b.c.multiNodeMode = Some(v)
	return b
}

func (b *Builder) RangingTimeStruct(v uint8) *Builder {
	b.c.rangingTimeStruct = Some(v)
	return b
}

func (b *Builder) ScheduledMode(v uint8) *Builder {
	b.c.scheduledMode = Some(v)
	return b
}

func (b *Builder) HoppingMode(v bool) *Builder {
	b.c.hoppingMode = Some(v)
	return b
}

func (b *Builder) BlockStriding(v bool) *Builder {
	b.c.blockStriding = Some(v)
	return b
}

func (b *Builder) UWBInitiationTime(v bool) *Builder {
	b.c.uwbInitiationTime = Some(v)
	return b
}

// Channels sets the supported channel list in order of preference. Build
// drops channels that cannot be advertised and repeated entries.
func (b *Builder) Channels(v []int) *Builder {
	b.c.channels = Some(append([]int(nil), v...))
	return b
}

func (b *Builder) RframeConfig(v RframeCapabilities) *Builder {
	b.c.rframeConfig = Some(v)
	return b
}

func (b *Builder) CCConstraintLength(v uint8) *Builder {
	b.c.ccConstraintLength = Some(v)
	return b
}

func (b *Builder) BPRFParameterSets(v BPRFParameterSets) *Builder {
	b.c.bprfParameterSets = Some(v)
	return b
}

func (b *Builder) HPRFParameterSets(v HPRFParameterSets) *Builder {
	b.c.hprfParameterSets = Some(v)
	return b
}

func (b *Builder) AoASupport(v AoACapabilities) *Builder {
	b.c.aoaSupport = Some(v)
	return b
}

func (b *Builder) ExtendedMACSupport(v uint8) *Builder {
	b.c.extendedMACSupport = Some(v)
	return b
}

// Build returns the assembled Capability. The Builder may be reused; later
// changes do not affect capabilities already built.
func (b *Builder) Build() *Capability {
	c := b.c
	if ch, ok := c.channels.Get(); ok {
		c.channels = Some(supportedChannels(ch))
	}
	return &c
}
