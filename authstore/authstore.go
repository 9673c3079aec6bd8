// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package authstore is the authentication/authorization collaborator
// for a skymap-backed keyspace: it maps a fixed-size ASCII user
// identifier to a credential hash, gates every mutation behind a root
// user and an origin key, and tracks which user (if any) the calling
// connection is currently logged in as.
package authstore

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"hash/maphash"

	"golang.org/x/crypto/bcrypt"

	"github.com/skymapdb/skymap/skymap"
)

// AuthIDSize bounds the fixed-width identifier array the store keys by.
const AuthIDSize = 40

// AuthkeySize bounds the fixed-width credential array the store stores
// by. It must hold a full bcrypt modular-crypt hash (always 60 bytes
// for bcrypt.GenerateFromPassword, regardless of cost), not the 40-byte
// digest the original Rust implementation used for its own keyed hash.
const AuthkeySize = 60

// AuthID is a fixed-size ASCII user identifier, left-justified and
// zero-padded.
type AuthID [AuthIDSize]byte

// Authkey is a fixed-size credential hash, as produced by generateKey.
type Authkey [AuthkeySize]byte

// rootID is the reserved identifier for the root user: "root",
// zero-padded to AuthIDSize like every other AuthID.
var rootID = mustAuthID("root")

var (
	// ErrDisabled is returned by every operation when the store was
	// constructed without an origin key: authentication is off.
	ErrDisabled = errors.New("authstore: disabled (no origin key configured)")
	// ErrBadCredentials covers both "wrong origin key" and "wrong
	// username or token" — the store never distinguishes the two in the
	// error it returns. Response time is not equalized: Login returns
	// before any bcrypt comparison when the account is unknown.
	ErrBadCredentials = errors.New("authstore: bad credentials")
	// ErrAlreadyClaimed is returned by ClaimRoot/ClaimUser when the
	// identifier is already registered.
	ErrAlreadyClaimed = errors.New("authstore: identifier already claimed")
	// ErrIllegalUsername is returned when a candidate identifier isn't
	// plain ASCII or exceeds AuthIDSize bytes.
	ErrIllegalUsername = errors.New("authstore: username must be ASCII and at most 40 bytes")
	// ErrNotRoot is returned when an operation that requires root
	// privilege is attempted by a non-root (or logged-out) caller.
	ErrNotRoot = errors.New("authstore: operation requires root")
	// ErrCannotDeleteRoot is returned by DeleteUser("root").
	ErrCannotDeleteRoot = errors.New("authstore: cannot delete the root user")
	// ErrNotLoggedIn is returned by Whoami/Logout when no user is
	// currently authenticated on this Store.
	ErrNotLoggedIn = errors.New("authstore: not logged in")
)

// Store holds the user/credential map plus the single logged-in-user
// slot for one connection. A Store is NOT safe to share across
// connections: each connection gets its own Store wrapping a shared
// *skymap.Map so that the login slot (whoami) stays per-connection while
// the credential map itself is shared.
type Store struct {
	authmap *skymap.Map[AuthID, Authkey]
	origin  *Authkey
	whoami  *AuthID
}

// NewShared constructs the credential map that every per-connection
// Store built with New shares.
func NewShared(opts ...skymap.Option[AuthID, Authkey]) *skymap.Map[AuthID, Authkey] {
	return skymap.New[AuthID, Authkey](hashAuthID, opts...)
}

// New builds a Store for one connection. origin is the shared secret
// that gates ClaimRoot and RegenerateUsingOrigin; pass nil to build a
// Store with authentication disabled entirely (every operation then
// returns ErrDisabled).
func New(authmap *skymap.Map[AuthID, Authkey], origin *Authkey) *Store {
	return &Store{authmap: authmap, origin: origin}
}

// IsEnabled reports whether this store has an origin key configured.
func (s *Store) IsEnabled() bool {
	return s.origin != nil
}

// ClaimRoot registers the root user if nobody has claimed it yet,
// returning the plaintext token the caller must save (it is never
// retrievable again; only its hash is stored). originKey must match the
// store's configured origin. On success, the calling connection is
// logged in as root.
func (s *Store) ClaimRoot(originKey []byte) (token string, err error) {
	if err := s.verifyOrigin(originKey); err != nil {
		return "", err
	}
	token, hash, err := generateKey()
	if err != nil {
		return "", err
	}
	inserted, err := s.authmap.Insert(rootID, hash)
	if err != nil {
		return "", err
	}
	if !inserted {
		return "", ErrAlreadyClaimed
	}
	id := rootID
	s.whoami = &id
	return token, nil
}

// ClaimUser registers a new, non-root user. Only callable by a
// connection currently logged in as root.
func (s *Store) ClaimUser(claimant []byte) (token string, err error) {
	if err := s.ensureRoot(); err != nil {
		return "", err
	}
	return s.claimUser(claimant)
}

func (s *Store) claimUser(claimant []byte) (string, error) {
	id, err := authIDFromBytes(claimant)
	if err != nil {
		return "", err
	}
	token, hash, err := generateKey()
	if err != nil {
		return "", err
	}
	inserted, err := s.authmap.Insert(id, hash)
	if err != nil {
		return "", err
	}
	if !inserted {
		return "", ErrAlreadyClaimed
	}
	return token, nil
}

// Login authenticates account against token, logging the connection in
// as account on success.
func (s *Store) Login(account, token []byte) error {
	if !s.IsEnabled() {
		return ErrDisabled
	}
	id, err := authIDFromBytes(account)
	if err != nil {
		return ErrBadCredentials
	}
	g, ok := s.authmap.Get(id)
	if !ok {
		return ErrBadCredentials
	}
	hash := g.Value()
	g.Release()
	if !verifyKey(token, hash) {
		return ErrBadCredentials
	}
	s.whoami = &id
	return nil
}

// RegenerateUsingOrigin reissues account's token given the origin key,
// bypassing the requirement to be logged in as root. Used for account
// recovery when root's own credentials are lost.
func (s *Store) RegenerateUsingOrigin(origin, account []byte) (string, error) {
	if err := s.verifyOrigin(origin); err != nil {
		return "", err
	}
	return s.regenerate(account)
}

// Regenerate reissues account's token. Only callable by root.
func (s *Store) Regenerate(account []byte) (string, error) {
	if err := s.ensureRoot(); err != nil {
		return "", err
	}
	return s.regenerate(account)
}

func (s *Store) regenerate(account []byte) (string, error) {
	id, err := authIDFromBytes(account)
	if err != nil {
		return "", err
	}
	token, hash, err := generateKey()
	if err != nil {
		return "", err
	}
	if !s.authmap.Update(id, hash) {
		return "", ErrBadCredentials
	}
	return token, nil
}

// DeleteUser removes user. Only callable by root; refuses to delete
// root itself.
func (s *Store) DeleteUser(user []byte) error {
	if err := s.ensureRoot(); err != nil {
		return err
	}
	id, err := authIDFromBytes(user)
	if err != nil {
		return err
	}
	if id == rootID {
		return ErrCannotDeleteRoot
	}
	if !s.authmap.RemoveIfPresent(id) {
		return ErrBadCredentials
	}
	return nil
}

// CollectUsernames lists every registered identifier. Only callable by
// root.
func (s *Store) CollectUsernames() ([]string, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	snap := s.authmap.Snapshot()
	names := make([]string, len(snap))
	for i, e := range snap {
		names[i] = authIDString(e.Key)
	}
	return names, nil
}

// Whoami returns the identifier of the currently logged-in user.
func (s *Store) Whoami() (string, error) {
	if !s.IsEnabled() {
		return "", ErrDisabled
	}
	if s.whoami == nil {
		return "", ErrNotLoggedIn
	}
	return authIDString(*s.whoami), nil
}

// Logout clears the connection's logged-in-user slot.
func (s *Store) Logout() error {
	if !s.IsEnabled() {
		return ErrDisabled
	}
	if s.whoami == nil {
		return ErrNotLoggedIn
	}
	s.whoami = nil
	return nil
}

func (s *Store) areYouRoot() (bool, error) {
	if !s.IsEnabled() {
		return false, ErrDisabled
	}
	if s.whoami == nil {
		return false, ErrNotRoot
	}
	return *s.whoami == rootID, nil
}

func (s *Store) ensureRoot() error {
	root, err := s.areYouRoot()
	if err != nil {
		return err
	}
	if !root {
		return ErrNotRoot
	}
	return nil
}

func (s *Store) verifyOrigin(origin []byte) error {
	if !s.IsEnabled() {
		return ErrDisabled
	}
	if subtle.ConstantTimeCompare(s.origin[:], origin) != 1 {
		return ErrBadCredentials
	}
	return nil
}

// authIDFromBytes validates and pads raw into a fixed-size AuthID.
func authIDFromBytes(raw []byte) (AuthID, error) {
	var id AuthID
	if len(raw) > AuthIDSize || !isASCII(raw) {
		return id, ErrIllegalUsername
	}
	copy(id[:], raw)
	return id, nil
}

func mustAuthID(s string) AuthID {
	id, err := authIDFromBytes([]byte(s))
	if err != nil {
		panic("authstore: invalid built-in identifier " + s)
	}
	return id
}

func authIDString(id AuthID) string {
	i := 0
	for i < len(id) && id[i] != 0 {
		i++
	}
	return string(id[:i])
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// generateKey produces a fresh random token and the Authkey hash that
// gets stored in its place; the plaintext token is shown to the caller
// exactly once and never persisted.
func generateKey() (token string, hash Authkey, err error) {
	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", hash, err
	}
	token = base64.RawURLEncoding.EncodeToString(raw)
	sum, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", hash, err
	}
	if len(sum) > AuthkeySize {
		return "", hash, errors.New("authstore: bcrypt hash exceeds fixed Authkey size")
	}
	copy(hash[:], sum)
	return token, hash, nil
}

// verifyKey reports whether token matches the bcrypt hash stored in
// hash's leading, non-zero-padded bytes.
func verifyKey(token []byte, hash Authkey) bool {
	i := len(hash)
	for i > 0 && hash[i-1] == 0 {
		i--
	}
	return bcrypt.CompareHashAndPassword(hash[:i], token) == nil
}

// hashAuthID is the skymap.HashFunc for AuthID keys: it hashes the
// fixed-size array by slicing it, so a []byte borrow of the same bytes
// (e.g. a raw username before padding-aware comparison) hashes
// identically once padded the same way.
func hashAuthID(seed maphash.Seed, id AuthID) uint64 {
	return skymap.HashBytes(seed, id[:])
}
