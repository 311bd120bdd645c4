// Package identity resolves the conversation id that tags a client's
// outgoing support messages. Members converse under their account id,
// so their history follows them across devices; anonymous visitors get
// a random opaque guest id generated once and kept client-side. The
// server never stores a guest id anywhere except inside messages.
package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	memberPrefix = "m_"
	guestPrefix  = "g_"
)

// MemberConversationID maps a member's user id to their conversation id.
func MemberConversationID(userID string) string {
	return memberPrefix + userID
}

// NewGuestID generates a fresh opaque guest conversation id.
func NewGuestID() string {
	return guestPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsGuest reports whether a conversation id belongs to an anonymous guest.
func IsGuest(conversationID string) bool {
	return strings.HasPrefix(conversationID, guestPrefix)
}

// Store persists a guest id on the client between runs.
type Store struct {
	path string
}

type persisted struct {
	GuestID string `json:"guestId"`
}

// NewStore returns a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore places the guest id under the user config dir.
func DefaultStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, "caredesk", "identity.json")), nil
}

// Load returns the persisted guest id, or "" when none exists yet.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		// corrupt state file, start over with a new id
		return "", nil
	}
	return p.GuestID, nil
}

// Save writes the guest id, creating parent directories as needed.
func (s *Store) Save(guestID string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(persisted{GuestID: guestID})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Resolve produces the conversation id for a client. An authenticated
// member id wins; otherwise the stored guest id is reused, or a new one
// is generated and persisted on first use.
func Resolve(memberID string, store *Store) (string, error) {
	if memberID != "" {
		return MemberConversationID(memberID), nil
	}
	id, err := store.Load()
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = NewGuestID()
	if err := store.Save(id); err != nil {
		return "", err
	}
	return id, nil
}
