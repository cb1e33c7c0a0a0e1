package compile

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
)

// chainRevision digests the hashes of def and every resolvable ancestor, so
// an edit anywhere along the extends chain yields a new revision.
func chainRevision(r theme.Resolver, def *theme.Definition) string {
	h := sha256.New()
	seen := make(map[theme.Descriptor]bool)

	cur := def
	for cur != nil && !seen[cur.Descriptor()] {
		seen[cur.Descriptor()] = true
		writeSeparated(h, cur.Hash())

		parent, ok := cur.Extends()
		if !ok {
			break
		}
		writeSeparated(h, parent.String())

		next, err := r.Resolve(parent)
		if err != nil {
			break
		}
		cur = next
	}

	return hex.EncodeToString(h.Sum(nil))
}

// ancestors returns the extends chain of def, nearest first, stopping at the
// first unresolvable or repeated descriptor.
func ancestors(r theme.Resolver, def *theme.Definition) []theme.Descriptor {
	var chain []theme.Descriptor
	seen := map[theme.Descriptor]bool{def.Descriptor(): true}

	cur := def
	for {
		parent, ok := cur.Extends()
		if !ok || seen[parent] {
			return chain
		}
		seen[parent] = true
		chain = append(chain, parent)

		next, err := r.Resolve(parent)
		if err != nil {
			return chain
		}
		cur = next
	}
}

func writeSeparated(w io.Writer, value string) {
	_, _ = io.WriteString(w, value)
	_, _ = w.Write([]byte{0})
}
