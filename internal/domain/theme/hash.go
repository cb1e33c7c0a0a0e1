package theme

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
	"strconv"
)

// Hash returns a stable hex digest over the same fields Equal compares.
// Definitions that are Equal share a hash, so it can key caches and dedup
// tables.
//
// Determinism rules:
//   - Attributes are hashed in declaration order.
//   - Overrides are a set and are hashed sorted by target then value.
//   - All fields are length-prefixed.
func (d *Definition) Hash() string {
	h := sha256.New()

	writeField(h, d.descriptor.String())
	writeField(h, d.location.File)
	writeField(h, strconv.Itoa(d.location.Line))
	writeField(h, strconv.Itoa(d.location.Column))

	if d.hasExtends {
		writeField(h, "extends")
		writeField(h, d.extends.String())
	} else {
		writeField(h, "")
	}

	writeCount(h, d.attributes.Len())
	for _, entry := range d.attributes.Entries() {
		writeField(h, entry.name)
		if entry.hasDefault {
			writeField(h, "default")
			writeField(h, entry.value)
		} else {
			writeField(h, "")
		}
	}

	sorted := append(overrideSet(nil), d.overrides...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].target != sorted[j].target {
			return sorted[i].target < sorted[j].target
		}
		return sorted[i].value < sorted[j].value
	})
	writeCount(h, len(sorted))
	for _, override := range sorted {
		writeField(h, override.target)
		writeField(h, override.value)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeCount(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
}

func writeField(h hash.Hash, value string) {
	writeCount(h, len(value))
	h.Write([]byte(value))
}
