package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SessionFile persists a session as JSON on disk so the CLI stays signed in
// between invocations. Reads are defensive: a missing or corrupt file is
// treated as signed-out, never as an error the caller must handle.
type SessionFile struct {
	path string
}

// NewSessionFile creates a session cache at the given path.
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// Load reads the cached session. Returns (nil, nil) when absent or corrupt.
func (f *SessionFile) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil
	}
	if sess.AccessToken == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session with owner-only permissions.
func (f *SessionFile) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

// Clear removes the cached session.
func (f *SessionFile) Clear() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
