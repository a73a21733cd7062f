package com

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// GUID is a COM class or interface id.
type GUID struct {
	uuid.UUID
}

// ParseGUID accepts the registry form {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}, with or without braces.
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, errors.Wrapf(err, "bad GUID %q", s)
	}
	return GUID{u}, nil
}

func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Bytes returns the in-memory layout: Data1, Data2, Data3 little-endian, Data4 as is.
func (g GUID) Bytes() []byte {
	b := make([]byte, 16)
	copy(b, g.UUID[:])
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return b
}

func GUIDFromBytes(b []byte) (GUID, error) {
	if len(b) != 16 {
		return GUID{}, errors.Errorf("GUID needs 16 bytes, got %d", len(b))
	}
	var g GUID
	copy(g.UUID[:], b)
	u := g.UUID[:]
	u[0], u[1], u[2], u[3] = u[3], u[2], u[1], u[0]
	u[4], u[5] = u[5], u[4]
	u[6], u[7] = u[7], u[6]
	return g, nil
}

func (g GUID) String() string {
	return "{" + strings.ToUpper(g.UUID.String()) + "}"
}
