package csml

import (
	"fmt"

	"github.com/backkem/uwb/pkg/capability"
	"github.com/backkem/uwb/pkg/iso7816"
)

// ControleeInfoVersion is the controlee info format this package writes.
var ControleeInfoVersion = capability.Version{Major: 1, Minor: 0}

// ControleeInfo describes a controlee to the controller's applet when a
// temporary ADF is swapped in.
type ControleeInfo struct {
	Version    capability.Version
	Capability *capability.Capability
}

// Bytes encodes the info as BF70 { 80 version, A3 capability }.
func (c *ControleeInfo) Bytes() []byte {
	children := []iso7816.Datum{
		iso7816.NewDatum(TagControleeVersion, []byte{c.Version.Major, c.Version.Minor}),
	}
	if c.Capability != nil {
		children = append(children, iso7816.NewDatum(TagControleeCaps, c.Capability.Bytes()))
	}
	return iso7816.NewConstructed(TagControleeInfo, children...).Bytes()
}

// ParseControleeInfo decodes the BF70 controlee info object.
func ParseControleeInfo(b []byte) (*ControleeInfo, error) {
	d, err := iso7816.ParseDatum(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidControleeInfo, err)
	}
	if d.Tag != TagControleeInfo {
		return nil, fmt.Errorf("%w: tag %s", ErrInvalidControleeInfo, d.Tag)
	}
	children, err := d.Children()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidControleeInfo, err)
	}

	info := &ControleeInfo{}
	v, ok := iso7816.Find(children, TagControleeVersion)
	if !ok || len(v.Value) != 2 {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidControleeInfo)
	}
	info.Version = capability.Version{Major: v.Value[0], Minor: v.Value[1]}

	if caps, ok := iso7816.Find(children, TagControleeCaps); ok {
		info.Capability, err = capability.FromBytes(caps.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidControleeInfo, err)
		}
	}
	return info, nil
}
