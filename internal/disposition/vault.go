package disposition

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// VaultPrefix prefixes every quarantine directory name.
const VaultPrefix = "quarantine_"

// Vault is the per-run quarantine directory. It is created on first use:
//
//	{base}/quarantine_{YYYYMMDD_HHMMSS}/
//
// A run that never quarantines anything leaves no directory behind.
type Vault struct {
	base string
	now  func() time.Time

	mu   sync.Mutex
	root string
}

// NewVault creates a lazily initialised vault under base.
func NewVault(base string, now func() time.Time) *Vault {
	if now == nil {
		now = time.Now
	}
	return &Vault{base: base, now: now}
}

// Ensure creates the vault directory if needed and returns its path.
func (v *Vault) Ensure() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root != "" {
		return v.root, nil
	}
	if v.base == "" {
		return "", fmt.Errorf("quarantine base cannot be empty")
	}

	root := filepath.Join(v.base, VaultPrefix+v.now().Format("20060102_150405"))
	if err := os.MkdirAll(root, 0700); err != nil {
		return "", fmt.Errorf("failed to create quarantine directory: %w", err)
	}

	v.root = root
	return root, nil
}

// Root returns the vault path, or an empty string before first use.
func (v *Vault) Root() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// ListFiles returns the entries held in the vault as absolute paths.
func (v *Vault) ListFiles() ([]string, error) {
	root := v.Root()
	if root == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list quarantine: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, filepath.Join(root, entry.Name()))
	}
	return files, nil
}
