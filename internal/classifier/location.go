package classifier

import "strings"

// DefaultRegion is the target geography when none is configured.
const DefaultRegion = "Netherlands"

// DefaultAliases are the location fragments that put a posting in the
// Netherlands. Bare "nl" is excluded: it is a substring of "finland" and
// "online".
var DefaultAliases = []string{
	"netherlands",
	"the netherlands",
	"nederland",
	"holland",
	"dutch",
	"amsterdam",
	"rotterdam",
	"utrecht",
	"the hague",
	"den haag",
	"eindhoven",
	"groningen",
	"leiden",
	"delft",
	"haarlem",
	"tilburg",
	"nijmegen",
	"arnhem",
	"breda",
	"maastricht",
	"amersfoort",
	"hilversum",
	"remote nl",
	"remote - nl",
	"remote, nl",
	"hybrid nl",
	"hybrid - nl",
	"hybrid, nl",
	"nl remote",
	"nl hybrid",
}

// LocationGate decides whether a free-form location lies in the target region.
type LocationGate struct {
	aliases []string
}

// NewLocationGate builds a gate from region aliases. The region name itself
// is always included. Empty aliases fall back to DefaultAliases.
func NewLocationGate(region string, aliases []string) *LocationGate {
	if len(aliases) == 0 {
		aliases = DefaultAliases
	}
	seen := make(map[string]bool, len(aliases)+1)
	g := &LocationGate{}
	for _, a := range append([]string{region}, aliases...) {
		n := normalize(a)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		g.aliases = append(g.aliases, n)
	}
	return g
}

// InScope reports whether location contains any region alias.
func (g *LocationGate) InScope(location string) bool {
	loc := normalize(location)
	if loc == "" {
		return false
	}
	for _, a := range g.aliases {
		if strings.Contains(loc, a) {
			return true
		}
	}
	return false
}
