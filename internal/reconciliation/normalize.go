package reconciliation

import (
	"regexp"
	"strings"
)

// The comparison key keeps city + street + base house number. Rooms,
// offices, building attachments, and house enumerations rarely agree
// between the two files and are dropped.

var (
	spacePattern     = regexp.MustCompile(`\s+`)
	separatorPattern = regexp.MustCompile(`[;:]+`)
	housePattern     = regexp.MustCompile(`^(\d+[а-яa-z]?)(/\d+|-\d+)?$`)
	baseSuffixRe     = regexp.MustCompile(`(\s*/\s*\d+|\s*-\s*\d+|\s+к\s*\d+|\s+стр\s*\d+)\s*$`)
)

var pieceReplacements = map[string]string{
	"улица":      "ул",
	"проспект":   "пр-кт",
	"пр-т":       "пр-кт",
	"переулок":   "пер",
	"шоссе":      "ш",
	"бульвар":    "бул",
	"площадь":    "пл",
	"микрорайон": "мкр",
	"мкрн":       "мкр",
	"строение":   "стр",
	"здание":     "зд",
}

var junkWords = map[string]struct{}{
	"пом": {}, "помещение": {}, "офис": {}, "оф": {},
	"кв": {}, "квартира": {}, "подъезд": {}, "пзд": {}, "п-зд": {},
	"эт": {}, "этаж": {}, "пункт": {}, "п": {},
}

// attachmentWords consume the token after them; building attachments are
// excluded from the key.
var attachmentWords = map[string]struct{}{
	"корпус": {}, "корп": {}, "к": {},
	"стр": {}, "строение": {}, "зд": {}, "здание": {},
}

func normText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ё", "е")
	return spacePattern.ReplaceAllString(s, " ")
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

// NormalizeAddress builds the comparison key for one address spelling.
func NormalizeAddress(raw string) string {
	s := normText(raw)
	if s == "" {
		return ""
	}

	s = strings.NewReplacer("—", "-", "–", "-").Replace(s)
	s = separatorPattern.ReplaceAllString(s, ",")

	var pieces []string
	for _, piece := range strings.Split(s, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	if len(pieces) == 0 {
		return ""
	}

	// The head office prepends its own city: "тюмень, <other city>, ...".
	if len(pieces) >= 2 && pieces[0] == "тюмень" && !hasDigit(pieces[1]) {
		pieces = pieces[1:]
	}

	cleaned := pieces[:0]
	for _, piece := range pieces {
		piece = normalizePiece(piece)
		if piece == "" || isJunkPiece(piece) {
			continue
		}
		cleaned = append(cleaned, piece)
	}
	if len(cleaned) == 0 {
		return ""
	}

	city := cleaned[0]
	rest := strings.Join(cleaned[1:], " ")
	rest = spacePattern.ReplaceAllString(strings.ReplaceAll(rest, " / ", "/"), " ")

	street, house := splitStreetHouse(rest)

	switch {
	case house != "" && street != "":
		return city + ", " + street + ", " + house
	case house != "":
		return city + ", " + house
	case street != "":
		return city + ", " + street
	}
	return city
}

func normalizePiece(piece string) string {
	piece = strings.ReplaceAll(piece, ".", "")
	words := strings.Fields(piece)
	out := words[:0]
	for _, word := range words {
		if word == "г" || word == "город" {
			continue
		}
		if replacement, ok := pieceReplacements[word]; ok {
			word = replacement
		}
		out = append(out, word)
	}
	return strings.Join(out, " ")
}

func isJunkPiece(piece string) bool {
	for _, word := range strings.Fields(piece) {
		if _, ok := junkWords[word]; ok {
			return true
		}
	}
	return false
}

// splitStreetHouse drops attachment tokens, then takes the first token that
// looks like a house number as the base house. Trailing /N and -N parts are
// cut so "39/3" and "39/4" land on the same key.
func splitStreetHouse(rest string) (street, house string) {
	tokens := strings.Fields(rest)
	var kept []string
	skipNext := false
	for _, token := range tokens {
		if skipNext {
			skipNext = false
			continue
		}
		if _, ok := attachmentWords[token]; ok {
			skipNext = true
			continue
		}
		kept = append(kept, token)
	}

	var streetTokens []string
	for _, token := range kept {
		if house == "" {
			if match := housePattern.FindStringSubmatch(token); match != nil {
				house = match[1]
				continue
			}
		}
		streetTokens = append(streetTokens, token)
	}
	return strings.Join(streetTokens, " "), house
}

// baseAddr strips one trailing suffix (/7, -1, к 2, стр 1) so near-identical
// spellings can be merged when it is safe.
func baseAddr(addr string) string {
	return strings.TrimSpace(baseSuffixRe.ReplaceAllString(strings.TrimSpace(addr), ""))
}
