package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketsRE    = regexp.MustCompile(`(\[[^\]]*\]|\([^\)]*\))`)
	punctuationRE = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRE  = regexp.MustCompile(`\s+`)
	romanRE       = regexp.MustCompile(`(?i)\b([ivx]+)\b`)
	trailingTmRE  = regexp.MustCompile(`(?i)(\w)tm\b`)
)

// editionMarkerREs match qualifiers that distinguish re-releases of the
// same game; they must not participate in identity comparison.
var editionMarkerREs = compileMarkers(
	"remaster",
	"remastered",
	"hd",
	"definitive",
	"goty",
	"game of the year",
	"edition",
	"complete",
	"complete edition",
	"director's cut",
	"directors cut",
	"anniversary",
	"collection",
	"royal",
	"ultimate",
	"redux",
	"legendary",
	"remake",
)

func compileMarkers(markers ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(markers))
	for _, marker := range markers {
		res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(marker)+`\b`))
	}
	return res
}

var genericSubtitles = map[string]struct{}{
	"origins": {},
	"legends": {},
	"redux":   {},
}

var romanNumerals = map[string]string{
	"i":    "1",
	"ii":   "2",
	"iii":  "3",
	"iv":   "4",
	"v":    "5",
	"vi":   "6",
	"vii":  "7",
	"viii": "8",
	"ix":   "9",
	"x":    "10",
}

// asciiFold decomposes accented characters and drops combining marks so
// "Pokémon" and "Pokemon" normalize identically.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Title produces the normalized form of a raw display title.
func Title(raw string) string {
	value, _, err := transform.String(asciiFold, raw)
	if err != nil {
		value = raw
	}
	value = dropNonASCII(value)
	value = bracketsRE.ReplaceAllString(value, " ")
	value = stripTrademarks(value)
	value = strings.ToLower(value)
	value = replaceRomanNumerals(value)
	value = removeEditionMarkers(value)
	value = punctuationRE.ReplaceAllString(value, " ")

	parts := make([]string, 0, 8)
	for _, part := range whitespaceRE.Split(value, -1) {
		if part == "" {
			continue
		}
		if _, generic := genericSubtitles[part]; generic {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

// Platform normalizes a raw platform string and resolves its family.
// Both return values are empty when the input carries no usable text.
func Platform(raw string) (platformNorm, family string) {
	value, _, err := transform.String(asciiFold, raw)
	if err != nil {
		value = raw
	}
	value = dropNonASCII(value)
	value = strings.ToLower(value)
	value = punctuationRE.ReplaceAllString(value, " ")
	value = strings.TrimSpace(whitespaceRE.ReplaceAllString(value, " "))
	if value == "" {
		return "", ""
	}
	return value, Family(value)
}

func dropNonASCII(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripTrademarks(value string) string {
	replacer := strings.NewReplacer(
		"™", " ", "®", " ", "©", " ",
		"(tm)", " ", "(TM)", " ",
		"(r)", " ", "(R)", " ",
		"(c)", " ", "(C)", " ",
	)
	value = replacer.Replace(value)
	return trailingTmRE.ReplaceAllString(value, "$1 ")
}

func removeEditionMarkers(value string) string {
	for _, re := range editionMarkerREs {
		value = re.ReplaceAllString(value, " ")
	}
	return value
}

func replaceRomanNumerals(value string) string {
	return romanRE.ReplaceAllStringFunc(value, func(token string) string {
		if digits, ok := romanNumerals[strings.ToLower(token)]; ok {
			return digits
		}
		return token
	})
}
