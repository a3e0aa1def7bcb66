package provider

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ProtocolDescriptor is the opaque protocol information handed to the module's startup entry.
// Its contents are never interpreted here; the module receives a pointer to the first byte.
type ProtocolDescriptor []byte

// pointer returns the address passed to the module, or nil for an empty descriptor.
func (p ProtocolDescriptor) pointer() *byte {
	if len(p) == 0 {
		return nil
	}
	return &p[0]
}

// DescriptorFromProto encodes msg as a protocol descriptor.
// Marshaling is deterministic.
func DescriptorFromProto(msg proto.Message) (ProtocolDescriptor, error) {
	if msg == nil {
		return nil, fmt.Errorf("protocol descriptor message is nil")
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal protocol descriptor: %w", err)
	}
	return ProtocolDescriptor(b), nil
}

// DescriptorToProto decodes a descriptor produced by DescriptorFromProto into msg.
func DescriptorToProto(p ProtocolDescriptor, msg proto.Message) error {
	if err := proto.Unmarshal(p, msg); err != nil {
		return fmt.Errorf("failed to unmarshal protocol descriptor: %w", err)
	}
	return nil
}
