package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken means no credentials are stored for the user.
var ErrNoToken = errors.New("no Google OAuth token stored for user")

// TokenStore persists one OAuth token per user.
type TokenStore interface {
	Load(userID string) (*oauth2.Token, error)
	Save(userID string, tok *oauth2.Token) error
	Has(userID string) bool
}

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_@.+-]{1,128}$`)

func validateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) || strings.HasPrefix(userID, ".") || strings.Contains(userID, "..") {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}

// FileTokenStore keeps tokens as JSON files named google-<user>.token in Dir.
type FileTokenStore struct {
	Dir string
	mu  sync.Mutex
}

// NewFileTokenStore returns a store rooted at dir.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{Dir: dir}
}

func (s *FileTokenStore) path(userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, "google-"+userID+".token"), nil
}

// Load returns ErrNoToken when nothing is stored.
func (s *FileTokenStore) Load(userID string) (*oauth2.Token, error) {
	p, err := s.path(userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

// Save writes tok atomically with 0600 permissions.
func (s *FileTokenStore) Save(userID string, tok *oauth2.Token) error {
	p, err := s.path(userID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return os.Rename(tmp, p)
}

// Has reports whether a token file exists for userID.
func (s *FileTokenStore) Has(userID string) bool {
	p, err := s.path(userID)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
