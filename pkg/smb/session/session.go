// Package session tracks authenticated SMB sessions and their channels.
//
// A Session owns the key material established by one successful
// authentication: the 40-byte legacy session-key buffer, the negotiated
// dialect and client flags, the server challenge used during the handshake,
// and the preauth hash snapshot for SMB 3.1.1. Key material is set exactly
// once and immutable afterwards; Destroy erases it.
//
// Multichannel sessions own one Channel per bound connection, each with its
// own KDF-derived signing and cipher keys. Channel binding is serialized
// against concurrent signers by the session lock; signing itself reads
// immutable state and needs no lock.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/marmos91/smbsec/pkg/smb/kdf"
	"github.com/marmos91/smbsec/pkg/smb/ntlm"
	"github.com/marmos91/smbsec/pkg/smb/preauth"
	"github.com/marmos91/smbsec/pkg/smb/signing"
	"github.com/marmos91/smbsec/pkg/smb/types"
)

var (
	// ErrKeyAlreadySet means a second authentication tried to replace the
	// session key. The key is established exactly once per session.
	ErrKeyAlreadySet = errors.New("session: session key already established")

	// ErrNoSessionKey means channel binding ran before authentication.
	ErrNoSessionKey = errors.New("session: no session key established")

	// ErrChannelBound means the channel ID is already bound.
	ErrChannelBound = errors.New("session: channel already bound")
)

// Session is one authenticated SMB session.
type Session struct {
	// SessionID is the registry key, unique per server. ID 0 is the
	// anonymous pre-auth session.
	SessionID uint64

	// User is the authenticated account name, empty for guest/anonymous.
	User string

	// Domain is the domain the client authenticated against.
	Domain string

	// IsGuest marks sessions admitted without credential verification.
	IsGuest bool

	mu sync.RWMutex

	dialect         types.Dialect
	clientFlags     ntlm.Flags
	serverChallenge [ntlm.ChallengeSize]byte

	key    ntlm.SessionKey
	keySet bool

	// preauthHash is the connection hash snapshot taken when the final
	// session-setup message was absorbed; the KDF context for 3.1.1.
	preauthHash [preauth.HashSize]byte

	// sequence is the legacy SMB1 signing counter. NTLMv1 success sets it
	// to 1.
	sequence atomic.Uint32

	channels map[uint32]*Channel
}

// NewSession creates an unauthenticated session with the given ID.
func NewSession(id uint64) *Session {
	return &Session{
		SessionID: id,
		channels:  make(map[uint32]*Channel),
	}
}

// SetDialect records the negotiated dialect. Called once before setup.
func (s *Session) SetDialect(d types.Dialect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialect = d
}

// Dialect returns the negotiated dialect.
func (s *Session) Dialect() types.Dialect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dialect
}

// SetClientFlags records the client's NTLM negotiate flags.
func (s *Session) SetClientFlags(f ntlm.Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientFlags = f
}

// ClientFlags returns the client's NTLM negotiate flags.
func (s *Session) ClientFlags() ntlm.Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientFlags
}

// SetChallenge records the server challenge sent in the CHALLENGE message.
func (s *Session) SetChallenge(c [ntlm.ChallengeSize]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverChallenge = c
}

// Challenge returns the server challenge for response verification.
func (s *Session) Challenge() [ntlm.ChallengeSize]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverChallenge
}

// EstablishKey stores the session key produced by a successful
// authentication. A second call fails: the key is immutable once set.
func (s *Session) EstablishKey(key ntlm.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keySet {
		return ErrKeyAlreadySet
	}
	s.key = key
	s.keySet = true
	return nil
}

// SessionKey returns a copy of the 40-byte session-key buffer and whether
// a key has been established.
func (s *Session) SessionKey() (ntlm.SessionKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.keySet
}

// SigningKey returns a copy of the 16-byte core key consumed by SMB2
// signing and the 3.x KDF.
func (s *Session) SigningKey() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.keySet {
		return nil, false
	}
	out := make([]byte, ntlm.SMB1SessionKeySize)
	copy(out, s.key[:ntlm.SMB1SessionKeySize])
	return out, true
}

// SetPreauthHash snapshots the connection's preauth integrity hash at
// session-setup time.
func (s *Session) SetPreauthHash(h [preauth.HashSize]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preauthHash = h
}

// PreauthHash returns the snapshotted preauth integrity hash.
func (s *Session) PreauthHash() [preauth.HashSize]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preauthHash
}

// SetSequence sets the legacy signing sequence counter.
func (s *Session) SetSequence(n uint32) {
	s.sequence.Store(n)
}

// NextSequence returns the current legacy sequence number and advances it.
func (s *Session) NextSequence() uint32 {
	return s.sequence.Add(1) - 1
}

// BindChannel derives per-channel keys for channelID and publishes the
// channel. For 2.x dialects the channel signs with the session key
// directly; for 3.x all keys come from the SP800-108 KDF with the
// session's preauth hash as 3.1.1 context.
//
// Derivation runs under the session lock, so concurrent binds cannot race
// and signers on other channels never observe a half-built channel.
func (s *Session) BindChannel(channelID uint32, cipher types.Cipher, alg types.SigningAlgorithm) (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.keySet {
		return nil, ErrNoSessionKey
	}
	if _, ok := s.channels[channelID]; ok {
		return nil, fmt.Errorf("%w: channel %d", ErrChannelBound, channelID)
	}

	ch, err := newChannel(channelID, s.key, s.dialect, s.preauthHash, cipher, alg)
	if err != nil {
		return nil, err
	}
	s.channels[channelID] = ch
	return ch, nil
}

// Channel returns a bound channel by ID.
func (s *Session) Channel(channelID uint32) (*Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[channelID]
	return ch, ok
}

// ChannelCount returns the number of bound channels.
func (s *Session) ChannelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// Destroy erases the session key and every channel's key material. The
// session must not be used afterwards.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key.Zero()
	s.keySet = false
	for id, ch := range s.channels {
		ch.destroy()
		delete(s.channels, id)
	}
}

// Channel is one bound connection of a multichannel session. Its keys are
// derived once at bind time and immutable afterwards.
type Channel struct {
	// ChannelID identifies the connection within the session.
	ChannelID uint32

	// Signer signs and verifies PDUs on this channel.
	Signer signing.Signer

	// SigningKey is the KDF-derived signing key (3.x) or a copy of the
	// session signing key (2.x).
	SigningKey []byte

	// EncryptionKey and DecryptionKey are the cipher keys, 3.x only.
	EncryptionKey []byte
	DecryptionKey []byte

	// ApplicationKey is handed to higher-layer protocols, 3.x only.
	ApplicationKey []byte
}

// newChannel derives all channel keys. Callers hold the session lock.
func newChannel(id uint32, key ntlm.SessionKey, dialect types.Dialect, preauthHash [preauth.HashSize]byte, cipher types.Cipher, alg types.SigningAlgorithm) (*Channel, error) {
	ch := &Channel{ChannelID: id}
	core := key[:ntlm.SMB1SessionKeySize]

	if !dialect.IsSMB3() {
		ch.SigningKey = make([]byte, len(core))
		copy(ch.SigningKey, core)
	} else {
		sigLabel, sigCtx := kdf.LabelAndContext(kdf.SigningKeyPurpose, dialect, preauthHash)
		ch.SigningKey = kdf.DeriveKey(core, sigLabel, sigCtx, 128)

		encLabel, encCtx := kdf.LabelAndContext(kdf.EncryptionKeyPurpose, dialect, preauthHash)
		ch.EncryptionKey = kdf.DeriveKey(core, encLabel, encCtx, cipher.KeyBits())

		decLabel, decCtx := kdf.LabelAndContext(kdf.DecryptionKeyPurpose, dialect, preauthHash)
		ch.DecryptionKey = kdf.DeriveKey(core, decLabel, decCtx, cipher.KeyBits())

		appLabel, appCtx := kdf.LabelAndContext(kdf.ApplicationKeyPurpose, dialect, preauthHash)
		ch.ApplicationKey = kdf.DeriveKey(core, appLabel, appCtx, 128)
	}

	signer, err := signing.NewSigner(dialect, alg, ch.SigningKey)
	if err != nil {
		return nil, err
	}
	ch.Signer = signer
	return ch, nil
}

// destroy zeroes the channel's key material.
func (ch *Channel) destroy() {
	clear(ch.SigningKey)
	clear(ch.EncryptionKey)
	clear(ch.DecryptionKey)
	clear(ch.ApplicationKey)
	ch.Signer = nil
}
