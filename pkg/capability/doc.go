// Package capability models the UWB capability set a FiRa device advertises
// to its peer and reconciles two such sets into session parameters.
//
// A Capability is encoded as a flat TLV buffer (see package tlv) with one
// record per advertised field:
//
//	0x80 PHY version range     (min major, min minor, max major, max minor)
//	0x81 MAC version range     (min major, min minor, max major, max minor)
//	0x82 device roles          0x8A UWB initiation time
//	0x83 ranging method        0x8B channels
//	0x84 STS config            0x8C Rframe config
//	0x85 multi-node mode       0x8D CC constraint length
//	0x86 ranging time struct   0x8E BPRF parameter sets
//	0x87 scheduled mode        0x8F HPRF parameter sets
//	0x88 hopping mode          0x90 AoA support
//	0x89 block striding        0x91 extended MAC address
//
// The two version ranges are always encoded. Every other field is optional;
// an absent field is omitted from the encoding rather than written as zero,
// and stays absent after decoding.
//
// Negotiation functions are pure and total: an unknown field on either side
// resolves to a fixed default rather than an error.
package capability
