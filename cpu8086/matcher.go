// matcher.go - Opcode matching against the instruction catalog
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package cpu8086

// Match returns the first catalog descriptor whose primary (and, when
// declared, secondary) opcode bits match the leading bytes of data.
func Match(data []byte) (*Descriptor, error) {
	if len(data) == 0 {
		return nil, ErrTruncated
	}
	short := false
	for i := range catalog {
		desc := &catalog[i]
		if !desc.Primary.declared() || !fits(desc.Primary.Where, data) {
			continue
		}
		if !desc.Primary.matches(data) {
			continue
		}
		if desc.Secondary.declared() {
			if !fits(desc.Secondary.Where, data) {
				short = true
				continue
			}
			if !desc.Secondary.matches(data) {
				continue
			}
		}
		if desc.Has(FieldSegment) {
			seg := desc.Field(FieldSegment)
			if !fits(seg, data) {
				return nil, ErrTruncated
			}
			// The segment field sits in a three bit reg slot; 1xx names no register.
			if data[seg.Byte]>>seg.Shift&0b100 != 0 {
				return nil, ErrUnknownOpcode
			}
		}
		return desc, nil
	}
	if short {
		return nil, ErrTruncated
	}
	return nil, ErrUnknownOpcode
}

func fits(b BitField, data []byte) bool {
	return int(b.Byte) < len(data)
}
