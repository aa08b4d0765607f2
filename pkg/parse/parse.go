// Package parse turns one raw delimited dump line of unknown structure
// into named fields. Separator detection, token classification and the
// positional fallback heuristics run as an ordered chain of assignment
// rules; the chain guarantees that every input token ends up somewhere
// in the output (a named field or a champ_N slot), so no data is ever
// silently dropped.
package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dredgelabs/dredge/pkg/classify"
)

// Row maps inferred field names to raw string values.
type Row map[string]string

var (
	urlRe       = regexp.MustCompile(`(?i)https?://[^\s;|,]+`)
	urlPrefixRe = regexp.MustCompile(`^(?i)https?://[^\s:]+`)
)

// Line parses a raw dump line. sourceHint, when non-empty, is attached
// as the "source" field of the result.
func Line(line string, sourceHint string) Row {
	row := make(Row)

	sep := detectSeparator(line)

	var parts []string
	if sep == ":" && urlRe.MatchString(line) {
		parts = splitColonURLSafe(line)
	} else {
		parts = strings.Split(line, sep)
	}

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}

	if len(tokens) == 1 {
		row["donnee"] = tokens[0]
		if sourceHint != "" {
			row["source"] = sourceHint
		}
		return row
	}

	assigned := make([]bool, len(tokens))

	// First pass: structural classification. The first token of each
	// kind claims the field; duplicates stay unassigned and fall
	// through to the heuristics below.
	for i, tok := range tokens {
		kind, ok := classify.Classify(tok)
		if !ok {
			continue
		}
		name := kind.FieldName()
		if row[name] == "" {
			row[name] = tok
			assigned[i] = true
		}
	}

	var unassigned []string
	for i, tok := range tokens {
		if !assigned[i] {
			unassigned = append(unassigned, tok)
		}
	}

	// Identifier heuristic: a line without an email or an already
	// claimed identifier starts with the account name.
	if len(unassigned) > 0 && row["identifiant"] == "" && row["email"] == "" {
		row["identifiant"] = unassigned[0]
		unassigned = unassigned[1:]
	}

	// Password/hash heuristic: the token following the identifier is
	// the credential.
	if len(unassigned) > 0 && row["password"] == "" && row["hash"] == "" {
		next := unassigned[0]
		if classify.IsHash(next) {
			row["hash"] = next
		} else {
			row["password"] = next
		}
		unassigned = unassigned[1:]
	}

	// Residual pass: re-classify stragglers (a postal code may only
	// become assignable now), then guess city/name fields, and park
	// anything left in champ_N slots.
	justSawPostalCode := false
	for i, tok := range unassigned {
		if kind, ok := classify.Classify(tok); ok {
			// A duplicate postal code still signals that the next token
			// is likely the city, even when the field is already taken.
			if kind == classify.KindPostalCode {
				justSawPostalCode = true
			}
			name := kind.FieldName()
			if row[name] == "" {
				row[name] = tok
				continue
			}
		}

		switch {
		case justSawPostalCode && isAlphabetic(tok) && runeLen(tok) >= 2 && row["ville"] == "":
			row["ville"] = tok
			justSawPostalCode = false
		case row["nom"] == "" && isAlphabetic(tok) && runeLen(tok) >= 2 && runeLen(tok) <= 30:
			row["nom"] = tok
		case row["nom"] != "" && row["prenom"] == "" && isAlphabetic(tok) && runeLen(tok) >= 2 && runeLen(tok) <= 30:
			row["prenom"] = tok
		default:
			row[fmt.Sprintf("champ_%d", i+1)] = tok
		}
	}

	if sourceHint != "" {
		row["source"] = sourceHint
	}
	return row
}

// detectSeparator picks the split character for a line. Occurrences
// inside URLs do not count, since URLs legitimately contain colons.
// Precedence: ';' when present and at least as frequent as ':', then
// '|' when present and at least as frequent as both, then ':'.
func detectSeparator(line string) string {
	counted := line
	if urlRe.MatchString(line) {
		counted = urlRe.ReplaceAllString(line, "")
	}

	semicolons := strings.Count(counted, ";")
	colons := strings.Count(counted, ":")
	pipes := strings.Count(counted, "|")

	switch {
	case semicolons > 0 && semicolons >= colons:
		return ";"
	case pipes > 0 && pipes >= colons && pipes >= semicolons:
		return "|"
	default:
		return ":"
	}
}

// splitColonURLSafe splits on ':' while consuming a full http(s) URL as
// a single token instead of breaking it at the scheme colon.
func splitColonURLSafe(line string) []string {
	var parts []string
	remaining := line
	for len(remaining) > 0 {
		if m := urlPrefixRe.FindString(remaining); m != "" {
			parts = append(parts, m)
			remaining = strings.TrimPrefix(remaining[len(m):], ":")
			continue
		}
		idx := strings.Index(remaining, ":")
		if idx == -1 {
			parts = append(parts, remaining)
			break
		}
		parts = append(parts, remaining[:idx])
		remaining = remaining[idx+1:]
	}
	return parts
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func runeLen(s string) int {
	return len([]rune(s))
}
