package iso7816

// ChannelMask selects the logical channel bits of a first-interindustry class byte.
const ChannelMask = 0x03

// MaxBasicLogicalChannel is the highest channel number expressible in
// first-interindustry class bytes.
const MaxBasicLogicalChannel = 3

// WithChannel returns cla with its logical channel bits set to channel.
// Channels above MaxBasicLogicalChannel use the further-interindustry
// encoding (bit 7 set, channel-4 in the low nibble).
func WithChannel(cla byte, channel int) byte {
	if channel <= MaxBasicLogicalChannel {
		return (cla &^ ChannelMask) | byte(channel)
	}
	return (cla & 0x80) | 0x40 | byte(channel-4)&0x0F
}
