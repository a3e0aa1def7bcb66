package provider

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// GUIDSize is the size of a GUID in memory.
const GUIDSize = 16

// DecodeGUID reads a GUID in its in-memory layout (little-endian Data1, Data2, Data3).
func DecodeGUID(b []byte) (uuid.UUID, error) {
	var id uuid.UUID
	if len(b) < GUIDSize {
		return id, fmt.Errorf("guid needs %d bytes, got %d", GUIDSize, len(b))
	}
	binary.BigEndian.PutUint32(id[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(id[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(id[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(id[8:], b[8:16])
	return id, nil
}

// EncodeGUID writes id into b using the in-memory GUID layout. b must hold GUIDSize bytes.
func EncodeGUID(b []byte, id uuid.UUID) error {
	if len(b) < GUIDSize {
		return fmt.Errorf("guid needs %d bytes, got %d", GUIDSize, len(b))
	}
	binary.LittleEndian.PutUint32(b[0:4], binary.BigEndian.Uint32(id[0:4]))
	binary.LittleEndian.PutUint16(b[4:6], binary.BigEndian.Uint16(id[4:6]))
	binary.LittleEndian.PutUint16(b[6:8], binary.BigEndian.Uint16(id[6:8]))
	copy(b[8:16], id[8:])
	return nil
}

// newInstanceID returns a time-ordered id used to tag a delegate's trace output.
func newInstanceID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
