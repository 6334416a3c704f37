package ntlm

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/marmos91/smbsec/pkg/smb/smbenc"
)

// IsMessage reports whether blob starts with the NTLMSSP signature and a
// type discriminant, i.e. whether it is worth routing to a decoder.
func IsMessage(blob []byte) bool {
	return len(blob) >= 12 && bytes.Equal(blob[:8], signature[:])
}

// MessageType returns the type discriminant of an NTLMSSP blob, or 0 when
// the blob is not an NTLMSSP message.
func MessageType(blob []byte) uint32 {
	if !IsMessage(blob) {
		return 0
	}
	return binary.LittleEndian.Uint32(blob[8:12])
}

// checkHeader validates the signature and type of a blob against the fixed
// size of its message type.
func checkHeader(blob []byte, size int, msgType uint32) error {
	if len(blob) < size {
		return fmt.Errorf("%w: %d bytes, need %d", ErrTooShort, len(blob), size)
	}
	if !bytes.Equal(blob[:8], signature[:]) {
		return ErrBadSignature
	}
	if got := binary.LittleEndian.Uint32(blob[8:12]); got != msgType {
		return fmt.Errorf("%w: message type %d, want %d", ErrMalformedBlob, got, msgType)
	}
	return nil
}

// DecodeNegotiate parses a NEGOTIATE (type 1) message. The client's flags
// are the significant output; domain and workstation hints are decoded when
// present for diagnostics.
func DecodeNegotiate(blob []byte) (*Negotiate, error) {
	if err := checkHeader(blob, negotiateSize, MessageTypeNegotiate); err != nil {
		return nil, err
	}

	r := smbenc.NewReader(blob)
	r.Skip(12) // signature + type
	flags := Flags(r.ReadUint32())
	domainBuf := readSecurityBuffer(r)
	workstationBuf := readSecurityBuffer(r)
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, r.Err())
	}

	domain, err := domainBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	workstation, err := workstationBuf.slice(blob)
	if err != nil {
		return nil, err
	}

	// Negotiate-message hints are OEM encoded regardless of the Unicode
	// flag ([MS-NLMP] 2.2.1.1).
	return &Negotiate{
		Flags:       flags,
		Domain:      string(domain),
		Workstation: string(workstation),
	}, nil
}

// challengeFlags is the server capability set sent in every challenge.
const challengeFlags = FlagNegotiateUnicode |
	FlagNegotiateNTLM |
	FlagTargetTypeServer |
	FlagNegotiateTargetInfo |
	FlagNegotiate128 |
	FlagNegotiate56 |
	FlagNegotiateVersion

// EncodeChallenge builds a CHALLENGE (type 2) message carrying a freshly
// generated random server challenge. The challenge is returned alongside
// the blob so the caller can record it on the handshake state for later
// verification.
//
// The server name is embedded twice: as the primary target name and in the
// target-info list as the NetBIOS computer/domain and DNS computer/domain
// attributes, all UTF-16 encoded, terminated by the AvIDEOL sentinel.
func EncodeChallenge(serverName string, clientFlags Flags) ([]byte, [ChallengeSize]byte, error) {
	var challenge [ChallengeSize]byte
	if _, err := rand.Read(challenge[:]); err != nil {
		return nil, challenge, fmt.Errorf("ntlm: generate server challenge: %w", err)
	}

	flags := challengeFlags
	if clientFlags.Has(FlagRequestTarget) {
		flags |= FlagRequestTarget
	}

	name := EncodeUTF16LE(serverName)
	targetInfo := encodeTargetInfo([]AvPair{
		{ID: AvIDNbComputerName, Value: name},
		{ID: AvIDNbDomainName, Value: name},
		{ID: AvIDDnsComputerName, Value: name},
		{ID: AvIDDnsDomainName, Value: name},
	})

	w := smbenc.NewWriter(challengeSize + len(name) + len(targetInfo))
	w.WriteBytes(signature[:])
	w.WriteUint32(MessageTypeChallenge)
	writeSecurityBuffer(w, len(name), challengeSize)
	w.WriteUint32(uint32(flags))
	w.WriteBytes(challenge[:])
	w.WriteZeros(8) // Reserved
	writeSecurityBuffer(w, len(targetInfo), challengeSize+len(name))
	w.WriteBytes(name)
	w.WriteBytes(targetInfo)

	return w.Bytes(), challenge, nil
}

// DecodeChallenge parses a CHALLENGE (type 2) message. The server never
// consumes challenges; this is the client-side counterpart used by tests
// and tooling.
func DecodeChallenge(blob []byte) (*Challenge, error) {
	if err := checkHeader(blob, challengeSize, MessageTypeChallenge); err != nil {
		return nil, err
	}

	r := smbenc.NewReader(blob)
	r.Skip(12)
	targetNameBuf := readSecurityBuffer(r)
	flags := Flags(r.ReadUint32())
	challengeBytes := r.ReadBytes(ChallengeSize)
	r.Skip(8) // Reserved
	targetInfoBuf := readSecurityBuffer(r)
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, r.Err())
	}

	nameBytes, err := targetNameBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	targetName, err := DecodeUTF16LE(nameBytes)
	if err != nil {
		return nil, err
	}

	infoBytes, err := targetInfoBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	var targetInfo []AvPair
	if len(infoBytes) > 0 {
		targetInfo, err = ParseTargetInfo(infoBytes)
		if err != nil {
			return nil, err
		}
	}

	c := &Challenge{
		Flags:      flags,
		TargetName: targetName,
		TargetInfo: targetInfo,
	}
	copy(c.ServerChallenge[:], challengeBytes)
	return c, nil
}

// DecodeAuthenticate parses an AUTHENTICATE (type 3) message. Every
// security buffer is validated against the blob length before its field is
// materialized; any out-of-range field aborts the attempt with
// ErrMalformedBlob.
func DecodeAuthenticate(blob []byte) (*Authenticate, error) {
	if err := checkHeader(blob, authenticateSize, MessageTypeAuthenticate); err != nil {
		return nil, err
	}

	r := smbenc.NewReader(blob)
	r.Skip(12)
	lmBuf := readSecurityBuffer(r)
	ntBuf := readSecurityBuffer(r)
	domainBuf := readSecurityBuffer(r)
	userBuf := readSecurityBuffer(r)
	workstationBuf := readSecurityBuffer(r)
	sessionKeyBuf := readSecurityBuffer(r)
	flags := Flags(r.ReadUint32())
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, r.Err())
	}

	lmResponse, err := lmBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	ntResponse, err := ntBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	domainBytes, err := domainBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	userBytes, err := userBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	workstationBytes, err := workstationBuf.slice(blob)
	if err != nil {
		return nil, err
	}
	sessionKey, err := sessionKeyBuf.slice(blob)
	if err != nil {
		return nil, err
	}

	decodeString := func(b []byte) (string, error) {
		if flags.Has(FlagNegotiateUnicode) {
			return DecodeUTF16LE(b)
		}
		return string(b), nil
	}

	user, err := decodeString(userBytes)
	if err != nil {
		return nil, err
	}
	domain, err := decodeString(domainBytes)
	if err != nil {
		return nil, err
	}
	workstation, err := decodeString(workstationBytes)
	if err != nil {
		return nil, err
	}

	return &Authenticate{
		Flags:               flags,
		User:                user,
		Domain:              domain,
		DomainPresent:       domainBuf.present(),
		Workstation:         workstation,
		LMResponse:          lmResponse,
		NTResponse:          ntResponse,
		EncryptedSessionKey: sessionKey,
	}, nil
}
