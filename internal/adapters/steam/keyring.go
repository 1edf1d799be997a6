package steam

import (
	"strings"
	"sync/atomic"
)

// Keyring hands out Steam Web API keys round-robin so request quota is
// spread evenly across them. The key list is immutable after construction;
// rotation state is a single atomic counter.
type Keyring struct {
	keys []string
	next atomic.Uint64
}

// NewKeyring builds a Keyring from the given keys. Blank entries are
// dropped and surrounding whitespace is trimmed.
func NewKeyring(keys []string) *Keyring {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return &Keyring{keys: cleaned}
}

// Next returns the next key in rotation, or "" when no keys are configured.
func (k *Keyring) Next() string {
	if len(k.keys) == 0 {
		return ""
	}
	n := k.next.Add(1) - 1
	return k.keys[n%uint64(len(k.keys))]
}

// Len returns the number of usable keys.
func (k *Keyring) Len() int {
	return len(k.keys)
}
