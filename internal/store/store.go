// Package store holds the identity directory and the conversation logs. All
// state lives for the lifetime of the process.
package store

import (
	"errors"
	"sync"

	"github.com/mr-mark-a/messagecaller/internal/model"
)

const DefaultNickname = "User"

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNotFound          = errors.New("user not found")
	// ErrIdentityConflict is returned by CreateOrBind when the user already
	// has a live session. It is consumed by the sign-in arbiter and never
	// reported to clients as-is.
	ErrIdentityConflict = errors.New("identity bound to another session")
	ErrSessionMismatch  = errors.New("live session changed")
)

type Store struct {
	mu sync.RWMutex

	usersByNumber map[string]model.User

	messages *messageStore
}

func New() *Store {
	return &Store{
		usersByNumber: make(map[string]model.User),
		messages:      newMessageStore(),
	}
}

// ValidIdentifier reports whether number is exactly four ASCII digits.
func ValidIdentifier(number string) bool {
	if len(number) != 4 {
		return false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	return true
}

// CreateOrBind creates the user on first registration or binds sessionID to
// an existing user that has no live session. Profile fields are only applied
// on creation. When the user is already bound, the existing record is
// returned together with ErrIdentityConflict.
func (s *Store) CreateOrBind(number string, defaults model.Profile, sessionID string, nowMillis int64) (model.User, bool, error) {
	if !ValidIdentifier(number) {
		return model.User{}, false, ErrInvalidIdentifier
	}
	if sessionID == "" {
		return model.User{}, false, errors.New("missing sessionID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.usersByNumber[number]; ok {
		if existing.SessionID != "" {
			return existing, false, ErrIdentityConflict
		}
		existing.SessionID = sessionID
		existing.UpdatedAt = nowMillis
		s.usersByNumber[number] = existing
		return existing, false, nil
	}

	profile := defaults
	if profile.Nickname == "" {
		profile.Nickname = DefaultNickname
	}
	u := model.User{
		Number:    number,
		Profile:   profile,
		SessionID: sessionID,
		CreatedAt: nowMillis,
		UpdatedAt: nowMillis,
	}
	s.usersByNumber[number] = u
	return u, true, nil
}

func (s *Store) User(number string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByNumber[number]
	return u, ok
}

func (s *Store) PublicUser(number string) (model.PublicUser, bool) {
	u, ok := s.User(number)
	if !ok {
		return model.PublicUser{}, false
	}
	return u.Public(), true
}

// UpdateProfile applies the non-nil fields of patch.
func (s *Store) UpdateProfile(number string, patch model.ProfilePatch, nowMillis int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByNumber[number]
	if !ok {
		return model.User{}, ErrNotFound
	}
	if patch.Nickname != nil {
		u.Nickname = *patch.Nickname
	}
	if patch.Lastname != nil {
		u.Lastname = *patch.Lastname
	}
	if patch.Photo != nil {
		u.Photo = *patch.Photo
	}
	if patch.Age != nil {
		u.Age = *patch.Age
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Birthday != nil {
		u.Birthday = *patch.Birthday
	}
	u.UpdatedAt = nowMillis
	s.usersByNumber[number] = u
	return u, nil
}

// Unbind clears the live session of number if it is still sessionID.
func (s *Store) Unbind(number, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByNumber[number]
	if !ok || sessionID == "" || u.SessionID != sessionID {
		return false
	}
	u.SessionID = ""
	s.usersByNumber[number] = u
	return true
}

// Rebind moves the live session of number from one session to another.
func (s *Store) Rebind(number, from, to string, nowMillis int64) (model.User, error) {
	if to == "" {
		return model.User{}, errors.New("missing target session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByNumber[number]
	if !ok {
		return model.User{}, ErrNotFound
	}
	if u.SessionID != from {
		return u, ErrSessionMismatch
	}
	u.SessionID = to
	u.UpdatedAt = nowMillis
	s.usersByNumber[number] = u
	return u, nil
}

// LiveSessions counts users with a live session.
func (s *Store) LiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.usersByNumber {
		if u.SessionID != "" {
			n++
		}
	}
	return n
}

func (s *Store) AppendMessage(msg model.Message) model.Message {
	return s.messages.append(ChatKey(msg.From, msg.To), msg)
}

// History returns the conversation between a and b in either order.
func (s *Store) History(a, b string) []model.Message {
	return s.messages.list(ChatKey(a, b))
}
