package normalize

// Second-level labels under which a two-character apex label still needs a
// third label to be registrable (acme.co.uk style). Deliberately a small
// fixed list rather than the public-suffix list; historical alias data was
// built with this rule and must keep resolving the same way.
var secondLevelLabels = map[string]bool{
	"co":  true,
	"com": true,
	"org": true,
	"net": true,
	"gov": true,
	"edu": true,
}

// RegistrableDomain reduces a normalized domain to the portion considered
// "the same site" for matching: the last two labels, or the last three when
// the apex label is two characters and sits under a known second-level label
// (e.g. mail.acme.co.uk -> acme.co.uk).
func RegistrableDomain(domain string) string {
	d := Domain(domain)
	if d == "" {
		return ""
	}
	labels := splitLabels(d)
	if len(labels) <= 2 {
		return d
	}
	apex := labels[len(labels)-1]
	second := labels[len(labels)-2]
	if len(apex) == 2 && secondLevelLabels[second] && len(labels) >= 3 {
		return joinLabels(labels[len(labels)-3:])
	}
	return joinLabels(labels[len(labels)-2:])
}

// DomainCandidates expands a domain into the set of values worth matching
// against a stored primary domain or a domain alias: the normalized form, its
// registrable domain, and the registrable domain with a "www." prefix.
// Deduplicated, order-stable.
func DomainCandidates(domain string) []string {
	d := Domain(domain)
	if d == "" {
		return nil
	}
	reg := RegistrableDomain(d)
	seen := make(map[string]bool, 3)
	var out []string
	for _, c := range []string{d, reg, "www." + reg} {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func splitLabels(d string) []string {
	var labels []string
	start := 0
	for i := 0; i <= len(d); i++ {
		if i == len(d) || d[i] == '.' {
			if i > start {
				labels = append(labels, d[start:i])
			}
			start = i + 1
		}
	}
	return labels
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += "."
		}
		out += l
	}
	return out
}
