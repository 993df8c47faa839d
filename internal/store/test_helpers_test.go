package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRegistration creates a registration whose description bytes
// are derived from the id.
func createTestRegistration(publicKey, descriptionID string, seq int64) Registration {
	return Registration{
		PublicKey:     publicKey,
		DescriptionID: descriptionID,
		Description:   []byte("desc:" + descriptionID),
		Seq:           seq,
	}
}
