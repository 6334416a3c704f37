package ntlm

// Flags is the NTLMSSP negotiate flag set exchanged in all three handshake
// messages.
//
// [MS-NLMP] Section 2.2.2.5
type Flags uint32

const (
	FlagNegotiateUnicode Flags = 1 << iota
	FlagNegotiateOEM
	FlagRequestTarget
	_
	FlagNegotiateSign
	FlagNegotiateSeal
	FlagNegotiateDatagram
	FlagNegotiateLMKey
	_
	FlagNegotiateNTLM
	_
	FlagAnonymous
	FlagNegotiateOEMDomainSupplied
	FlagNegotiateOEMWorkstationSupplied
	_
	FlagNegotiateAlwaysSign
	FlagTargetTypeDomain
	FlagTargetTypeServer
	_
	FlagNegotiateExtendedSessionSecurity
	FlagNegotiateIdentify
	_
	FlagRequestNonNTSessionKey
	FlagNegotiateTargetInfo
	_
	FlagNegotiateVersion
	_
	_
	_
	FlagNegotiate128
	FlagNegotiateKeyExch
	FlagNegotiate56
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// AvID identifies an AV_PAIR attribute in a target-info list.
//
// [MS-NLMP] Section 2.2.2.1
type AvID uint16

const (
	// AvIDEOL terminates the list; its value length is always zero.
	AvIDEOL AvID = iota
	// AvIDNbComputerName is the server's NetBIOS computer name.
	AvIDNbComputerName
	// AvIDNbDomainName is the server's NetBIOS domain name.
	AvIDNbDomainName
	// AvIDDnsComputerName is the server's DNS computer name.
	AvIDDnsComputerName
	// AvIDDnsDomainName is the server's DNS domain name.
	AvIDDnsDomainName
	// AvIDDnsTreeName is the forest DNS name.
	AvIDDnsTreeName
	// AvIDFlags carries a 4-byte AV flags field.
	AvIDFlags
	// AvIDTimestamp carries a FILETIME server timestamp.
	AvIDTimestamp
	// AvIDSingleHost carries a Single_Host_Data structure.
	AvIDSingleHost
	// AvIDTargetName is the SPN of the target server.
	AvIDTargetName
	// AvIDChannelBindings carries a channel-binding hash.
	AvIDChannelBindings
)

// Message type discriminants, the 4-byte field after the signature.
const (
	MessageTypeNegotiate    uint32 = 0x00000001
	MessageTypeChallenge    uint32 = 0x00000002
	MessageTypeAuthenticate uint32 = 0x00000003
)

// signature is the 8-byte magic prefix of every NTLMSSP message.
var signature = [8]byte{'N', 'T', 'L', 'M', 'S', 'S', 'P', 0}
