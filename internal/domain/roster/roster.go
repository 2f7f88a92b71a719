// Package roster derives participant ids and scopes the roster to a season.
package roster

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/reto/internal/domain/model"
)

// FallbackPrefix marks ids generated for names that slug to nothing.
const FallbackPrefix = "p-"

// DeriveID slugs name into a participant id: lowercase, accents stripped,
// runs of anything outside [a-z0-9] collapsed to one hyphen, hyphens trimmed.
// The result may be empty; see NewID.
func DeriveID(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NewID derives an id from name, falling back to a time-ordered unique id.
func NewID(name string) string {
	if id := DeriveID(name); id != "" {
		return id
	}
	if u, err := uuid.NewV7(); err == nil {
		return FallbackPrefix + u.String()
	}
	return FallbackPrefix + uuid.NewString()
}

// Normalize trims a display name. ok is false for blank names, which are ignored.
func Normalize(name string) (string, bool) {
	name = strings.TrimSpace(name)
	return name, name != ""
}

// FromMap turns an id->name map into participants sorted by id.
func FromMap(m map[string]string) []model.Participant {
	out := make([]model.Participant, 0, len(m))
	for id, name := range m {
		out = append(out, model.Participant{ID: id, Name: name})
	}
	SortByID(out)
	return out
}

// SortByID orders participants by id.
func SortByID(ps []model.Participant) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}

// IDs returns the ids of ps in order.
func IDs(ps []model.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// FilterForSeason restricts roster to the season's snapshot, keeping roster order.
// Seasons without a snapshot use the full roster.
func FilterForSeason(s model.Season, roster []model.Participant) []model.Participant {
	if !s.HasSnapshot() {
		return roster
	}
	enrolled := make(map[string]struct{}, len(s.Participants))
	for _, id := range s.Participants {
		enrolled[id] = struct{}{}
	}
	out := make([]model.Participant, 0, len(s.Participants))
	for _, p := range roster {
		if _, ok := enrolled[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
