package normalize

import (
	"regexp"
	"strings"
)

// familyTokens collapses specific platform names into coarse families so
// that regional and generational variants group together for uniqueness
// and matching. Token matching is word-bounded against the normalized
// platform string.
var familyTokens = map[string][]string{
	"playstation": {"playstation", "psone", "ps1", "ps2", "ps3", "ps4", "ps5", "ps vita", "psp"},
	"xbox":        {"xbox", "xbox one", "xbox series", "xbox 360"},
	"nintendo":    {"nintendo", "switch", "3ds", "ds", "wii", "wii u", "gamecube", "gba", "game boy", "nes", "snes", "n64"},
	"pc":          {"pc", "windows", "steam", "dos", "linux", "mac"},
	"mobile":      {"ios", "android", "mobile"},
	"sega":        {"saturn", "dreamcast", "genesis", "mega drive", "sega"},
	"atari":       {"atari"},
	"neo-geo":     {"neo geo", "neogeo"},
}

// familyOrder fixes iteration order so Family is deterministic when a
// string could match several families.
var familyOrder = []string{"playstation", "xbox", "nintendo", "pc", "mobile", "sega", "atari", "neo-geo"}

var familyREs = func() map[string][]*regexp.Regexp {
	compiled := make(map[string][]*regexp.Regexp, len(familyTokens))
	for family, tokens := range familyTokens {
		res := make([]*regexp.Regexp, 0, len(tokens))
		for _, token := range tokens {
			token = strings.Join(strings.Fields(token), " ")
			res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(token)+`\b`))
		}
		compiled[family] = res
	}
	return compiled
}()

// Family resolves a normalized platform string to its platform family,
// or the empty string when the platform is unrecognized.
func Family(platformNorm string) string {
	if platformNorm == "" {
		return ""
	}
	for _, family := range familyOrder {
		for _, re := range familyREs[family] {
			if re.MatchString(platformNorm) {
				return family
			}
		}
	}
	return ""
}

// Families resolves a list of raw platform strings to the set of
// families they belong to. Unrecognized platforms are dropped.
func Families(raw []string) map[string]struct{} {
	families := make(map[string]struct{}, len(raw))
	for _, platform := range raw {
		if _, family := Platform(platform); family != "" {
			families[family] = struct{}{}
		}
	}
	return families
}
