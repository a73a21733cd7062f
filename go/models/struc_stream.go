package models

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// StrucStream packs and unpacks struc-tagged structs at a guest address.
type StrucStream struct {
	Stream io.ReadWriter
	Order  binary.ByteOrder
}

func (s *StrucStream) Pack(i interface{}) error {
	return errors.Wrap(struc.PackWithOrder(s.Stream, i, s.Order), "struc.Pack() failed")
}

func (s *StrucStream) Unpack(i interface{}) error {
	return errors.Wrap(struc.UnpackWithOrder(s.Stream, i, s.Order), "struc.Unpack() failed")
}
