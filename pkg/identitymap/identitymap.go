package identitymap

import (
	"sort"
	"strings"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// Kind names the kind of identifier a Key carries.
type Kind int

const (
	KindUnspecified Kind = iota
	KindIdentity
	KindUSB
	KindTCP
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindUSB:
		return "usb"
	case KindTCP:
		return "tcp"
	case KindUnspecified:
		return "unspecified"
	default:
		return "unknown"
	}
}

// Key represents a lookup identifier that can locate a canonical device identity.
type Key struct {
	Kind  Kind
	Value string
}

// BuildKeys derives the keys that should point at the device's canonical identity.
func BuildKeys(device *models.Device) []Key {
	if device == nil {
		return nil
	}

	keys := make([]Key, 0, 3)
	seen := make(map[Key]struct{})
	add := func(kind Kind, raw string) {
		val := strings.TrimSpace(raw)
		if val == "" {
			return
		}
		key := Key{Kind: kind, Value: val}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	add(KindIdentity, device.Identity)
	add(KindUSB, device.Transport.USB)
	add(KindTCP, device.Transport.TCP)

	return keys
}

// Index maps transport ids and identities to the canonical identities that claim them.
type Index struct {
	owners map[Key][]string
}

// NewIndex indexes devices.
func NewIndex(devices []*models.Device) *Index {
	ix := &Index{owners: make(map[Key][]string)}

	for _, d := range devices {
		ix.Add(d)
	}

	return ix
}

// Add records every key of device as pointing at device.Identity.
func (ix *Index) Add(device *models.Device) {
	if device == nil || device.Identity == "" {
		return
	}

	for _, key := range BuildKeys(device) {
		owners := ix.owners[key]
		if containsString(owners, device.Identity) {
			continue
		}

		ix.owners[key] = append(owners, device.Identity)
	}
}

// Resolve returns the canonical identity for an id that may be an identity,
// a TCP transport id or a USB transport id, checked in that order.
func (ix *Index) Resolve(id string) (string, bool) {
	for _, kind := range []Kind{KindIdentity, KindTCP, KindUSB} {
		if owners := ix.owners[Key{Kind: kind, Value: id}]; len(owners) > 0 {
			return owners[0], true
		}
	}

	return "", false
}

// Claimants returns, sorted, every identity that references transportID either
// as its own identity or as one of its transport ids.
func (ix *Index) Claimants(transportID string) []string {
	var out []string

	for _, kind := range []Kind{KindIdentity, KindUSB, KindTCP} {
		for _, owner := range ix.owners[Key{Kind: kind, Value: transportID}] {
			if !containsString(out, owner) {
				out = append(out, owner)
			}
		}
	}

	sort.Strings(out)

	return out
}

// Conflicts returns the transport keys claimed by more than one identity.
func (ix *Index) Conflicts() map[Key][]string {
	out := make(map[Key][]string)

	for key, owners := range ix.owners {
		if key.Kind != KindUSB && key.Kind != KindTCP {
			continue
		}

		if len(owners) > 1 {
			sorted := append([]string(nil), owners...)
			sort.Strings(sorted)
			out[key] = sorted
		}
	}

	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
