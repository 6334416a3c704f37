package spnego

// Fixed GSS-API/SPNEGO wire constants. Peers byte-compare these prefixes,
// so they are immutable process-wide data, not builders: the DER lengths
// inside them are part of the expected encoding.
var (
	// negTokenInitHeader is the 74-byte GSS NegTokenInit the server
	// advertises in the NEGOTIATE response security buffer. It offers the
	// NTLMSSP mechanism (1.3.6.1.4.1.311.2.2.10) and carries the
	// "not_defined_in_RFC4178@please_ignore" principal name Windows
	// expects.
	negTokenInitHeader = [74]byte{
		0x60, 0x48, 0x06, 0x06, 0x2b, 0x06, 0x01, 0x05,
		0x05, 0x02, 0xa0, 0x3e, 0x30, 0x3c, 0xa0, 0x0e,
		0x30, 0x0c, 0x06, 0x0a, 0x2b, 0x06, 0x01, 0x04,
		0x01, 0x82, 0x37, 0x02, 0x02, 0x0a, 0xa3, 0x2a,
		0x30, 0x28, 0xa0, 0x26, 0x1b, 0x24, 0x6e, 0x6f,
		0x74, 0x5f, 0x64, 0x65, 0x66, 0x69, 0x6e, 0x65,
		0x64, 0x5f, 0x69, 0x6e, 0x5f, 0x52, 0x46, 0x43,
		0x34, 0x31, 0x37, 0x38, 0x40, 0x70, 0x6c, 0x65,
		0x61, 0x73, 0x65, 0x5f, 0x69, 0x67, 0x6e, 0x6f,
		0x72, 0x65,
	}

	// negTokenRespNegotiateHeader is the 31-byte NegTokenResp prefix for
	// the session-setup challenge leg: accept-incomplete, supported
	// mechanism NTLMSSP, response token follows. The trailing DER lengths
	// (0x81 0xa2) encode the fixed-size NTLM CHALLENGE payload the
	// original server emits.
	negTokenRespNegotiateHeader = [31]byte{
		0xa1, 0x81, 0xbe, 0x30, 0x81, 0xbb, 0xa0, 0x03,
		0x0a, 0x01, 0x01, 0xa1, 0x0c, 0x06, 0x0a, 0x2b,
		0x06, 0x01, 0x04, 0x01, 0x82, 0x37, 0x02, 0x02,
		0x0a, 0xa2, 0x81, 0xa5, 0x04, 0x81, 0xa2,
	}

	// negTokenRespAcceptHeader is the 9-byte NegTokenResp for the final
	// session-setup response: accept-completed, no payload.
	negTokenRespAcceptHeader = [9]byte{
		0xa1, 0x07, 0x30, 0x05, 0xa0, 0x03, 0x0a, 0x01,
		0x00,
	}
)

// NegTokenInitHeader returns a copy of the fixed GSS NegTokenInit blob.
func NegTokenInitHeader() []byte {
	out := make([]byte, len(negTokenInitHeader))
	copy(out, negTokenInitHeader[:])
	return out
}

// NegTokenRespNegotiateHeader returns a copy of the fixed challenge-leg
// NegTokenResp prefix. The caller appends the NTLM CHALLENGE bytes.
func NegTokenRespNegotiateHeader() []byte {
	out := make([]byte, len(negTokenRespNegotiateHeader))
	copy(out, negTokenRespNegotiateHeader[:])
	return out
}

// NegTokenRespAcceptHeader returns a copy of the fixed accept-completed
// NegTokenResp.
func NegTokenRespAcceptHeader() []byte {
	out := make([]byte, len(negTokenRespAcceptHeader))
	copy(out, negTokenRespAcceptHeader[:])
	return out
}
