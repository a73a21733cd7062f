package dispatch

// callSlot recovers the vtable slot from the indirect call that returned to ra:
//
//	FF 50+r d8     call [r+d8]
//	FF 90+r d32    call [r+d32]
//	FF 10+r        call [r]
//
// r=4 needs a SIB byte and r=5 with mod 0 is absolute, so neither is accepted.
// Returns -1 if no form matches.
func (d *Dispatcher) callSlot(ra uint64) int {
	bsz := int64(d.Emu.PtrSize())
	at := func(back uint64) []byte {
		if ra < back {
			return nil
		}
		b, err := d.Emu.MemRead(ra-back, back)
		if err != nil {
			return nil
		}
		return b
	}
	slot := func(disp int64) int {
		if disp < 0 || disp%bsz != 0 {
			return -1
		}
		return int(disp / bsz)
	}
	if b := at(3); b != nil && b[0] == 0xff && b[1]&0xf8 == 0x50 && b[1]&7 != 4 {
		return slot(int64(int8(b[2])))
	}
	if b := at(6); b != nil && b[0] == 0xff && b[1]&0xf8 == 0x90 && b[1]&7 != 4 {
		return slot(int64(int32(d.Emu.ByteOrder().Uint32(b[2:]))))
	}
	if b := at(2); b != nil && b[0] == 0xff && b[1]&0xf8 == 0x10 && b[1]&7 != 4 && b[1]&7 != 5 {
		return 0
	}
	return -1
}
