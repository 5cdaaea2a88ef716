package session

import (
	"strings"
	"sync"
)

type Kind string

const (
	KindToken     Kind = "token"
	KindSignature Kind = "signature"
)

// Credential is an immutable snapshot handed to the dispatcher.
type Credential struct {
	Kind  Kind
	Value string
}

func Token(value string) Credential {
	return Credential{Kind: KindToken, Value: strings.TrimSpace(value)}
}

func Signature(value string) Credential {
	return Credential{Kind: KindSignature, Value: strings.TrimSpace(value)}
}

func (c Credential) Valid() bool {
	return (c.Kind == KindToken || c.Kind == KindSignature) && c.Value != ""
}

// QueryParam is the request parameter name the credential travels in.
func (c Credential) QueryParam() string {
	if c.Kind == KindSignature {
		return "signature"
	}
	return "token"
}

// Store holds the process-wide credential. Reads vastly outnumber writes.
type Store struct {
	mu         sync.RWMutex
	credential Credential
	set        bool
}

func NewStore() *Store {
	return &Store{}
}

// SetCredential authenticates the store. Invalid credentials leave it unchanged.
func (s *Store) SetCredential(credential Credential) bool {
	if !credential.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.set = true
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = Credential{}
	s.set = false
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *Store) Credential() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.set
}
