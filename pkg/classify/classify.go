// Package classify guesses the semantic type of a short text token
// found in a dump line. Rules are structural pattern tests evaluated in
// a fixed priority order; the first matching rule wins. None of the
// rules validate semantics (an IPv4 octet may exceed 255, an IBAN
// checksum is never verified). Classification only has to be good
// enough for field routing; the criteria filter catches mismatches.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Kind is the semantic type assigned to a token.
type Kind int

const (
	KindEmail Kind = iota
	KindIP
	KindPhone
	KindHash
	KindURL
	KindIBAN
	KindBIC
	KindBirthDate
	KindPostalCode
	KindAddress
	KindCivility
	KindVIN
)

// FieldName returns the parsed-row field name a kind is stored under.
func (k Kind) FieldName() string {
	switch k {
	case KindEmail:
		return "email"
	case KindIP:
		return "ip"
	case KindPhone:
		return "telephone"
	case KindHash:
		return "hash"
	case KindURL:
		return "url"
	case KindIBAN:
		return "iban"
	case KindBIC:
		return "bic"
	case KindBirthDate:
		return "date_naissance"
	case KindPostalCode:
		return "code_postal"
	case KindAddress:
		return "adresse"
	case KindCivility:
		return "civilite"
	case KindVIN:
		return "vin"
	}
	return ""
}

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ipRe         = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	phoneRe      = regexp.MustCompile(`^\+?\d[\d\s\-().]{6,}$`)
	hashRe       = regexp.MustCompile(`^[a-fA-F0-9]{32,128}$`)
	saltedHashRe = regexp.MustCompile(`^[a-fA-F0-9]{40}:.+$`)
	urlRe        = regexp.MustCompile(`^https?://`)
	ibanRe       = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Za-z0-9]{10,30}$`)
	bicRe        = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	dateRe       = regexp.MustCompile(`^\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}$`)
	isoDateRe    = regexp.MustCompile(`^\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}$`)
	postalRe     = regexp.MustCompile(`^\d{5}$`)
	addressRe    = regexp.MustCompile(`^\d+[\s,]`)
	vinRe        = regexp.MustCompile(`^[A-Z0-9]{17}$`)
)

// civilities is the closed vocabulary of gender/civility tokens.
var civilities = map[string]bool{
	"m": true, "f": true, "h": true,
	"mr": true, "mrs": true, "ms": true,
	"mme": true, "mlle": true,
	"monsieur": true, "madame": true, "mademoiselle": true,
	"homme": true, "femme": true,
	"male": true, "female": true,
}

// Classify guesses the semantic kind of a token. It never fails: the
// second return value is false when no rule matches, and callers fall
// back to positional heuristics.
func Classify(token string) (Kind, bool) {
	switch {
	case emailRe.MatchString(token):
		return KindEmail, true
	case ipRe.MatchString(token):
		return KindIP, true
	case isPhone(token):
		return KindPhone, true
	case IsHash(token):
		return KindHash, true
	case urlRe.MatchString(token):
		return KindURL, true
	case ibanRe.MatchString(token):
		return KindIBAN, true
	case bicRe.MatchString(token):
		return KindBIC, true
	case dateRe.MatchString(token) || isoDateRe.MatchString(token):
		return KindBirthDate, true
	case isPostalCode(token):
		return KindPostalCode, true
	case isAddress(token):
		return KindAddress, true
	case civilities[strings.ToLower(token)]:
		return KindCivility, true
	case isVIN(token):
		return KindVIN, true
	}
	return 0, false
}

// IsHash reports whether a token looks like a hex digest, either bare
// (MD5 through SHA-512 lengths) or the salted "40-hex:salt" shape.
func IsHash(token string) bool {
	return hashRe.MatchString(token) || saltedHashRe.MatchString(token)
}

func isPhone(token string) bool {
	if !phoneRe.MatchString(token) {
		return false
	}
	digits := 0
	for _, r := range token {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

func isPostalCode(token string) bool {
	if !postalRe.MatchString(token) {
		return false
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return false
	}
	return n >= 1000 && n <= 99999
}

func isAddress(token string) bool {
	if len(token) <= 5 || !addressRe.MatchString(token) {
		return false
	}
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isVIN(token string) bool {
	if !vinRe.MatchString(token) {
		return false
	}
	hasDigit, hasLetter := false, false
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasLetter = true
		}
	}
	return hasDigit && hasLetter
}
