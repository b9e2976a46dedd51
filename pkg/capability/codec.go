package capability

import (
	"fmt"

	"github.com/backkem/uwb/pkg/tlv"
)

// encodedMaxLen is the size of a capability with every field present:
// two 6-byte version records and sixteen 3-byte records.
const encodedMaxLen = 2*6 + 16*3

// Bytes encodes c as a capability TLV buffer. The version ranges are
// always written first; absent fields are omitted.
func (c *Capability) Bytes() []byte {
	w := tlv.NewWriter(encodedMaxLen)

	// Fixed 4-byte values always fit a TLV record.
	_ = w.PutBytes(TagPhyVersionRange, c.phyVersions.bytes())
	_ = w.PutBytes(TagMacVersionRange, c.macVersions.bytes())

	if v, ok := c.deviceRoles.Get(); ok {
		_ = w.PutByte(TagDeviceRoles, uint8(v))
	}
	if v, ok := c.rangingMethod.Get(); ok {
		_ = w.PutByte(TagRangingMethod, uint8(v))
	}
	if v, ok := c.stsConfig.Get(); ok {
		_ = w.PutByte(TagSTSConfig, uint8(v))
	}
	if v, ok := c.multiNodeMode.Get(); ok {
		_ = w.PutByte(TagMultiNodeMode, uint8(v))
	}
	if v, ok := c.rangingTimeStruct.Get(); ok {
		_ = w.PutByte(TagRangingTimeStruct, v)
	}
	if v, ok := c.scheduledMode.Get(); ok {
		_ = w.PutByte(TagScheduledMode, v)
	}
	if v, ok := c.hoppingMode.Get(); ok {
		_ = w.PutBool(TagHoppingMode, v)
	}
	if v, ok := c.blockStriding.Get(); ok {
		_ = w.PutBool(TagBlockStriding, v)
	}
	if v, ok := c.uwbInitiationTime.Get(); ok {
		_ = w.PutBool(TagUWBInitiationTime, v)
	}
	if v, ok := c.channels.Get(); ok {
		_ = w.PutByte(TagChannels, packChannels(v))
	}
	if v, ok := c.rframeConfig.Get(); ok {
		_ = w.PutByte(TagRframeConfig, uint8(v))
	}
	if v, ok := c.ccConstraintLength.Get(); ok {
		_ = w.PutByte(TagCCConstraintLength, v)
	}
	if v, ok := c.bprfParameterSets.Get(); ok {
		_ = w.PutByte(TagBPRFParameterSets, uint8(v))
	}
	if v, ok := c.hprfParameterSets.Get(); ok {
		_ = w.PutByte(TagHPRFParameterSets, uint8(v))
	}
	if v, ok := c.aoaSupport.Get(); ok {
		_ = w.PutByte(TagAoASupport, uint8(v))
	}
	if v, ok := c.extendedMACSupport.Get(); ok {
		_ = w.PutByte(TagExtendedMACAddress, v)
	}
	return w.Bytes()
}

// FromBytes decodes a capability TLV buffer.
//
// Missing version ranges default to 1.1. Any other missing field stays
// absent, as does a single-octet field whose value has the wrong length.
// An error wrapping ErrMalformed is returned when data is not valid TLV.
func FromBytes(data []byte) (*Capability, error) {
	buf, err := tlv.Decode(data, MaxRecords)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	b := NewBuilder()
	if v, err := buf.Bytes(TagPhyVersionRange); err == nil {
		if r, ok := versionRangeFromBytes(v); ok {
			b.PhyVersions(r)
		}
	}
	if v, err := buf.Bytes(TagMacVersionRange); err == nil {
		if r, ok := versionRangeFromBytes(v); ok {
			b.MacVersions(r)
		}
	}

	byteField(buf, TagDeviceRoles, func(v uint8) { b.DeviceRoles(DeviceRoles(v)) })
	byteField(buf, TagRangingMethod, func(v uint8) { b.RangingMethod(RangingMethods(v)) })
	byteField(buf, TagSTSConfig, func(v uint8) { b.STSConfig(STSCapabilities(v)) })
	byteField(buf, TagMultiNodeMode, func(v uint8) { b.MultiNodeMode(MultiNodeModes(v)) })
	byteField(buf, TagRangingTimeStruct, func(v uint8) { b.RangingTimeStruct(v) })
	byteField(buf, TagScheduledMode, func(v uint8) { b.ScheduledMode(v) })
	byteField(buf, TagHoppingMode, func(v uint8) { b.HoppingMode(v == 1) })
	byteField(buf, TagBlockStriding, func(v uint8) { b.BlockStriding(v == 1) })
	byteField(buf, TagUWBInitiationTime, func(v uint8) { b.UWBInitiationTime(v == 1) })
	byteField(buf, TagChannels, func(v uint8) { b.Channels(unpackChannels(v)) })
	byteField(buf, TagRframeConfig, func(v uint8) { b.RframeConfig(RframeCapabilities(v)) })
	byteField(buf, TagCCConstraintLength, func(v uint8) { b.CCConstraintLength(v) })
	byteField(buf, TagBPRFParameterSets, func(v uint8) { b.BPRFParameterSets(BPRFParameterSets(v)) })
	byteField(buf, TagHPRFParameterSets, func(v uint8) { b.HPRFParameterSets(HPRFParameterSets(v)) })
	byteField(buf, TagAoASupport, func(v uint8) { b.AoASupport(AoACapabilities(v)) })
	byteField(buf, TagExtendedMACAddress, func(v uint8) { b.ExtendedMACSupport(v) })

	return b.Build(), nil
}

// byteField calls set with the single-octet value under tag. Absent tags and
// values of the wrong length leave the field unset.
func byteField(buf *tlv.Buffer, tag uint8, set func(uint8)) {
	if v, err := buf.Byte(tag); err == nil {
		set(v)
	}
}
