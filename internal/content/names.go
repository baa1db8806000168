package content

import "fmt"

var (
	nameAdjectives = []string{
		"Swift", "Bright", "Calm", "Bold", "Wise", "Kind", "Quick", "Brave", "Cool", "Sharp",
		"Clear", "Strong", "Smart", "Fast", "Keen", "Pure", "Noble", "Gentle", "Fierce", "Grand",
	}
	nameNouns = []string{
		"Fox", "Eagle", "Wolf", "Bear", "Lion", "Tiger", "Hawk", "Owl", "Deer", "Raven",
		"Falcon", "Lynx", "Otter", "Whale", "Shark", "Dolphin", "Phoenix", "Dragon", "Panther", "Jaguar",
	}
)

// GenUserName derives a stable two-word name from seed, usually a pubkey.
func GenUserName(seed string) string {
	var hash int32
	for _, c := range seed {
		hash = (hash << 5) - hash + int32(c)
	}
	adj := abs(hash) % int64(len(nameAdjectives))
	noun := abs(hash>>8) % int64(len(nameNouns))
	return fmt.Sprintf("%s %s", nameAdjectives[adj], nameNouns[noun])
}

func abs(v int32) int64 {
	if v < 0 {
		return -int64(v)
	}
	return int64(v)
}

// NameResolver looks up a display name for a pubkey.
type NameResolver interface {
	Name(pubkey string) (string, bool)
}

// MapNames is a NameResolver backed by a map.
type MapNames map[string]string

func (m MapNames) Name(pubkey string) (string, bool) {
	n, ok := m[pubkey]
	return n, ok && n != ""
}

// DisplayName returns the resolved name for pubkey, or a generated one.
func DisplayName(names NameResolver, pubkey string) string {
	if names != nil {
		if n, ok := names.Name(pubkey); ok {
			return n
		}
	}
	return GenUserName(pubkey)
}
