package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DiscriminatorLiteral is the binary literal stored in the discriminator
// column of a composite reference that holds a reference value.
const DiscriminatorLiteral = "0x08"

// ReferenceSize is the length of an encoded composite reference: a 4-byte
// big-endian type code followed by a 16-byte identity.
const ReferenceSize = 20

// TypeCodeLiteral returns the binary literal of a type code: 0x followed by
// eight upper-case hex digits, matching the stored 4-byte encoding.
func TypeCodeLiteral(code int) string {
	return fmt.Sprintf("0x%08X", uint32(code))
}

// Reference is a decoded composite reference value.
type Reference struct {
	TypeCode uint32
	ID       uuid.UUID
}

// DecodeReference decodes the 20-byte wire form of a composite reference.
func DecodeReference(b []byte) (Reference, error) {
	if len(b) != ReferenceSize {
		return Reference{}, ErrValidation("reference must be %d bytes, got %d", ReferenceSize, len(b))
	}
	var id uuid.UUID
	copy(id[:], b[4:])
	return Reference{
		TypeCode: binary.BigEndian.Uint32(b[:4]),
		ID:       fromMixedEndian(id),
	}, nil
}

// DecodeReferenceHex decodes a reference from hex text with or without 0x.
func DecodeReferenceHex(s string) (Reference, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Reference{}, ErrValidation("invalid reference hex: %v", err)
	}
	return DecodeReference(b)
}

// Bytes returns the 20-byte wire form.
func (r Reference) Bytes() []byte {
	b := make([]byte, ReferenceSize)
	binary.BigEndian.PutUint32(b[:4], r.TypeCode)
	id := toMixedEndian(r.ID)
	copy(b[4:], id[:])
	return b
}

// Literal returns the wire form as a binary literal for use in SQL.
func (r Reference) Literal() string {
	return "0x" + strings.ToUpper(hex.EncodeToString(r.Bytes()))
}

// String returns the readable form {typeCode:uuid}.
func (r Reference) String() string {
	return fmt.Sprintf("{%d:%s}", r.TypeCode, r.ID)
}

// IsEmpty reports whether the reference has a zero identity.
func (r Reference) IsEmpty() bool {
	return r.ID == uuid.Nil
}

// ParseReference parses the readable form {typeCode:uuid}.
func ParseReference(s string) (Reference, error) {
	body := strings.TrimSpace(s)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return Reference{}, ErrValidation("reference %q must look like {code:uuid}", s)
	}
	code, id, ok := strings.Cut(body[1:len(body)-1], ":")
	if !ok {
		return Reference{}, ErrValidation("reference %q must look like {code:uuid}", s)
	}
	n, err := strconv.ParseUint(code, 10, 32)
	if err != nil {
		return Reference{}, ErrValidation("invalid reference type code %q", code)
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return Reference{}, ErrValidation("invalid reference uuid %q: %v", id, err)
	}
	return Reference{TypeCode: uint32(n), ID: u}, nil
}

// The identity bytes are stored with the first three groups little-endian,
// the layout SQL Server uses for uniqueidentifier values.
func fromMixedEndian(b uuid.UUID) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:])
	return u
}

func toMixedEndian(u uuid.UUID) uuid.UUID {
	// The swap is its own inverse.
	return fromMixedEndian(u)
}
