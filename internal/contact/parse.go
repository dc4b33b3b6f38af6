package contact

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/dealflow/internal/normalize"
)

// Candidate is one resolved attendee mention, keyed by normalized email.
// Explicit is true only when a human name was parsed alongside the email,
// never when the name was inferred from the address.
type Candidate struct {
	Email       string
	DisplayName string
	Explicit    bool
}

var (
	angleForm = regexp.MustCompile(`^(.*?)\s*<([^<>]+)>$`)
	parenForm = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)$`)
)

// ParseAttendeeEntry detects the three attendee shapes in priority order:
// "Name <email>", "Name (email)", bare email. Anything else is treated as a
// display name, rejected when it is itself email-shaped or the literal word
// "unknown".
func ParseAttendeeEntry(raw string) (Candidate, bool) {
	entry := strings.TrimSpace(raw)
	if entry == "" {
		return Candidate{}, false
	}

	if m := angleForm.FindStringSubmatch(entry); m != nil {
		if email, ok := normalize.Email(m[2]); ok {
			return candidateFor(email, m[1]), true
		}
	}
	if m := parenForm.FindStringSubmatch(entry); m != nil {
		if email, ok := normalize.Email(m[2]); ok {
			return candidateFor(email, m[1]), true
		}
	}
	if email, ok := normalize.Email(entry); ok {
		return Candidate{Email: email, DisplayName: InferNameFromEmail(email)}, true
	}

	if strings.Contains(entry, "@") || strings.EqualFold(entry, "unknown") {
		return Candidate{}, false
	}
	return Candidate{DisplayName: entry, Explicit: true}, true
}

func candidateFor(email, rawName string) Candidate {
	name := strings.Trim(strings.TrimSpace(rawName), `"'`)
	if name == "" {
		return Candidate{Email: email, DisplayName: InferNameFromEmail(email)}
	}
	return Candidate{Email: email, DisplayName: name, Explicit: true}
}

// InferNameFromEmail derives a display name from the local part of an email:
// split on '.', '_', '-' and title-case each token.
func InferNameFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	local := email[:at]
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	tokens := strings.Fields(local)
	if len(tokens) == 0 {
		return ""
	}
	titler := cases.Title(language.Und)
	for i, tok := range tokens {
		tokens[i] = titler.String(tok)
	}
	return strings.Join(tokens, " ")
}

// MergeCandidates folds two mentions of the same email into one winner. An
// explicit name always beats an inferred one; among equal explicitness the
// longer name wins, with the first-seen candidate keeping ties. The fold is
// order-insensitive for every case except equal-length distinct names, which
// BuildCandidates avoids by folding left-to-right.
func MergeCandidates(a, b Candidate) Candidate {
	if a.Explicit != b.Explicit {
		if b.Explicit {
			return b
		}
		return a
	}
	if len(b.DisplayName) > len(a.DisplayName) {
		return b
	}
	return a
}

// BuildCandidates parses a meeting's attendee display strings and the
// parallel attendee email list into a deduplicated candidate set, sorted by
// email for deterministic apply order. Returns the candidates and the count
// of entries that produced none.
func BuildCandidates(attendees, attendeeEmails []string) ([]Candidate, int) {
	byEmail := make(map[string]Candidate)
	invalid := 0

	fold := func(c Candidate) {
		if existing, ok := byEmail[c.Email]; ok {
			byEmail[c.Email] = MergeCandidates(existing, c)
		} else {
			byEmail[c.Email] = c
		}
	}

	for i, raw := range attendees {
		c, ok := ParseAttendeeEntry(raw)
		if !ok {
			invalid++
			continue
		}
		if c.Email == "" {
			// Display name without an address: pair with the parallel email
			// list when it lines up, otherwise the entry cannot be keyed.
			if i < len(attendeeEmails) {
				if email, ok := normalize.Email(attendeeEmails[i]); ok {
					c.Email = email
					fold(c)
					continue
				}
			}
			invalid++
			continue
		}
		fold(c)
	}

	for _, raw := range attendeeEmails {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		email, ok := normalize.Email(raw)
		if !ok {
			invalid++
			continue
		}
		if _, seen := byEmail[email]; seen {
			continue
		}
		fold(Candidate{Email: email, DisplayName: InferNameFromEmail(email)})
	}

	out := make([]Candidate, 0, len(byEmail))
	for _, c := range byEmail {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, invalid
}

// SplitName derives first/last parts when the name splits into exactly two
// tokens; anything else leaves them empty.
func SplitName(full string) (first, last string) {
	tokens := strings.Fields(full)
	if len(tokens) == 2 {
		return tokens[0], tokens[1]
	}
	return "", ""
}
