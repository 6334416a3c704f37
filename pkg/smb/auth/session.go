package auth

import (
	"fmt"

	"github.com/marmos91/smbsec/pkg/adapter"
	"github.com/marmos91/smbsec/pkg/smb/ntlm"
	"github.com/marmos91/smbsec/pkg/smb/preauth"
	"github.com/marmos91/smbsec/pkg/smb/session"
	"github.com/marmos91/smbsec/pkg/smb/types"
)

// EstablishSession registers an authenticated session from an auth result.
//
// The session records the negotiated dialect and the preauth hash snapshot
// taken when the final SESSION_SETUP message was absorbed, then receives
// the session key. Guest sessions carry no key and cannot sign. Legacy
// NTLMv1 sessions start their signing sequence at 1.
func EstablishSession(mgr *session.Manager, res *adapter.AuthResult, dialect types.Dialect, preauthHash [preauth.HashSize]byte) (*session.Session, error) {
	s := mgr.CreateSession()
	if res.User != nil {
		s.User = res.User.Username
	}
	s.Domain = res.Domain
	s.IsGuest = res.IsGuest
	s.SetDialect(dialect)
	s.SetPreauthHash(preauthHash)

	if res.IsGuest {
		return s, nil
	}

	if len(res.SessionKey) != ntlm.SessionKeySize {
		mgr.DeleteSession(s.SessionID)
		return nil, fmt.Errorf("session key is %d bytes, want %d", len(res.SessionKey), ntlm.SessionKeySize)
	}
	var key ntlm.SessionKey
	copy(key[:], res.SessionKey)
	if err := s.EstablishKey(key); err != nil {
		mgr.DeleteSession(s.SessionID)
		return nil, err
	}

	if res.NTLMv1 {
		s.SetSequence(1)
	}
	return s, nil
}
