// Package provider implements a delegation layer over a dynamically loaded socket service provider.
// This file contains the binary layouts shared with provider modules and the entry point signatures.
package provider

import (
	"fmt"
	"unicode/utf16"
)

// StartupSymbol is the name of the entry point every provider module exports.
const StartupSymbol = "WSPStartup"

// Version is a packed major/minor version word, low byte major.
type Version uint16

// MakeVersion packs major and minor into a Version.
func MakeVersion(major, minor uint8) Version {
	return Version(uint16(major) | uint16(minor)<<8)
}

// RequestedVersion is the only version a delegate accepts.
var RequestedVersion = MakeVersion(2, 2)

// Major returns the major component.
func (v Version) Major() uint8 { return uint8(v) }

// Minor returns the minor component.
func (v Version) Minor() uint8 { return uint8(v >> 8) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// descriptionLen is WSPDESCRIPTION_LEN.
const descriptionLen = 255

// ProviderData is the WSPDATA block filled in by the module at startup.
type ProviderData struct {
	Version     Version
	HighVersion Version
	description [descriptionLen + 1]uint16
}

// Description returns the provider's self-reported description.
func (d ProviderData) Description() string {
	n := 0
	for n < len(d.description) && d.description[n] != 0 {
		n++
	}
	return string(utf16.Decode(d.description[:n]))
}

// SetDescription stores s, truncated to fit, as the description.
func (d *ProviderData) SetDescription(s string) {
	d.description = [descriptionLen + 1]uint16{}
	encoded := utf16.Encode([]rune(s))
	if len(encoded) > descriptionLen {
		encoded = encoded[:descriptionLen]
	}
	copy(d.description[:], encoded)
}

// Operation identifies one entry of the provider procedure table.
// The order matches the in-memory layout of the table.
type Operation int

const (
	OpAccept Operation = iota
	OpAddressToString
	OpAsyncSelect
	OpBind
	OpCancelBlockingCall
	OpCleanup
	OpCloseSocket
	OpConnect
	OpDuplicateSocket
	OpEnumNetworkEvents
	OpEventSelect
	OpGetOverlappedResult
	OpGetPeerName
	OpGetSockName
	OpGetSockOpt
	OpGetQOSByName
	OpIoctl
	OpJoinLeaf
	OpListen
	OpRecv
	OpRecvDisconnect
	OpRecvFrom
	OpSelect
	OpSend
	OpSendDisconnect
	OpSendTo
	OpSetSockOpt
	OpShutdown
	OpSocket
	OpStringToAddress

	operationCount
)

var operationNames = [operationCount]string{
	OpAccept:              "WSPAccept",
	OpAddressToString:     "WSPAddressToString",
	OpAsyncSelect:         "WSPAsyncSelect",
	OpBind:                "WSPBind",
	OpCancelBlockingCall:  "WSPCancelBlockingCall",
	OpCleanup:             "WSPCleanup",
	OpCloseSocket:         "WSPCloseSocket",
	OpConnect:             "WSPConnect",
	OpDuplicateSocket:     "WSPDuplicateSocket",
	OpEnumNetworkEvents:   "WSPEnumNetworkEvents",
	OpEventSelect:         "WSPEventSelect",
	OpGetOverlappedResult: "WSPGetOverlappedResult",
	OpGetPeerName:         "WSPGetPeerName",
	OpGetSockName:         "WSPGetSockName",
	OpGetSockOpt:          "WSPGetSockOpt",
	OpGetQOSByName:        "WSPGetQOSByName",
	OpIoctl:               "WSPIoctl",
	OpJoinLeaf:            "WSPJoinLeaf",
	OpListen:              "WSPListen",
	OpRecv:                "WSPRecv",
	OpRecvDisconnect:      "WSPRecvDisconnect",
	OpRecvFrom:            "WSPRecvFrom",
	OpSelect:              "WSPSelect",
	OpSend:                "WSPSend",
	OpSendDisconnect:      "WSPSendDisconnect",
	OpSendTo:              "WSPSendTo",
	OpSetSockOpt:          "WSPSetSockOpt",
	OpShutdown:            "WSPShutdown",
	OpSocket:              "WSPSocket",
	OpStringToAddress:     "WSPStringToAddress",
}

// Operations returns every operation in table order.
func Operations() []Operation {
	ops := make([]Operation, operationCount)
	for i := range ops {
		ops[i] = Operation(i)
	}
	return ops
}

// Valid reports whether op names a table entry.
func (op Operation) Valid() bool {
	return op >= 0 && op < operationCount
}

func (op Operation) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// ProcTable is the raw procedure table a module fills in during startup.
type ProcTable [operationCount]uintptr

// UpcallTable is the table of host callbacks handed to every module at startup.
// It is supplied by the hosting process and passed through unchanged.
type UpcallTable struct {
	CloseEvent               uintptr
	CloseSocketHandle        uintptr
	CreateEvent              uintptr
	CreateSocketHandle       uintptr
	FDIsSet                  uintptr
	GetProviderPath          uintptr
	ModifyIFSHandle          uintptr
	PostMessage              uintptr
	QueryBlockingCallback    uintptr
	QuerySocketHandleContext uintptr
	QueueApc                 uintptr
	ResetEvent               uintptr
	SetEvent                 uintptr
	OpenCurrentThread        uintptr
	CloseThread              uintptr
}

// StartupFunc is the signature of the module's startup entry point.
// The upcall table is passed by address; on 64-bit Windows this is how the by-value struct travels anyway.
// It returns zero on success or a status code.
type StartupFunc func(version Version, data *ProviderData, info *byte, upcalls *UpcallTable, table *ProcTable) int32

// CleanupFunc is the signature of the table's cleanup entry.
// It returns zero on success; otherwise errno holds the status code.
type CleanupFunc func(errno *int32) int32
