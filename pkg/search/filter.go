package search

import "strings"

// criterionFields maps a criterion type to the parsed-field names that
// may legitimately satisfy it. Free-text retrieval matches anywhere in
// a line, so a phone search can retrieve a row whose address happens to
// contain the same digits; this mapping restores precision.
var criterionFields = map[string][]string{
	"email":          {"email", "mail"},
	"username":       {"identifiant", "username", "pseudo"},
	"displayName":    {"identifiant", "username", "pseudo", "nom", "name"},
	"lastName":       {"nom", "name", "last_name", "lastname", "surname", "identifiant"},
	"firstName":      {"prenom", "first_name", "firstname", "identifiant"},
	"phone":          {"telephone", "phone", "tel", "mobile"},
	"ipAddress":      {"ip"},
	"address":        {"adresse", "address", "rue", "street", "ville", "city"},
	"postalCode":     {"code_postal", "zip", "postal"},
	"ssn":            {"ssn"},
	"dob":            {"date_naissance", "birthday", "dob", "birth", "date", "bday"},
	"yob":            {"date_naissance", "birthday", "dob", "birth", "date", "bday"},
	"iban":           {"iban"},
	"bic":            {"bic"},
	"password":       {"password", "hash"},
	"hashedPassword": {"hash", "password"},
	"discordId":      {"discord"},
	"macAddress":     {"mac"},
	"gender":         {"civilite", "gender"},
	"vin":            {"vin"},
	"fivemLicense":   {"fivem"},
}

// FilterByCriteria re-checks normalized rows against the original typed
// criteria. A row passes only when every criterion is satisfied (AND);
// a single criterion is satisfied by any of its allowed fields (OR),
// falling back to the raw line and finally to all fields so a wrong
// field guess by the parser never over-filters.
func FilterByCriteria(rows []map[string]any, criteria []Criterion) []map[string]any {
	if len(criteria) == 0 {
		return rows
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if rowMatchesAll(row, criteria) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatchesAll(row map[string]any, criteria []Criterion) bool {
	for _, criterion := range criteria {
		allowed, known := criterionFields[criterion.Type]
		if !known {
			continue
		}
		searchVal := strings.ToLower(strings.TrimSpace(criterion.Value))
		if searchVal == "" {
			continue
		}

		if matchesAllowedField(row, allowed, searchVal) {
			continue
		}
		if raw := stringValue(row["_raw"]); raw != "" &&
			strings.Contains(strings.ToLower(raw), searchVal) {
			continue
		}
		if matchesAnyField(row, searchVal) {
			continue
		}
		return false
	}
	return true
}

func matchesAllowedField(row map[string]any, allowed []string, searchVal string) bool {
	for key, val := range row {
		if strings.HasPrefix(key, "_") {
			continue
		}
		keyLower := strings.ToLower(key)
		for _, a := range allowed {
			if keyLower == a {
				if strings.Contains(strings.ToLower(stringValue(val)), searchVal) {
					return true
				}
				break
			}
		}
	}
	return false
}

func matchesAnyField(row map[string]any, searchVal string) bool {
	for key, val := range row {
		if strings.HasPrefix(key, "_") {
			continue
		}
		if strings.Contains(strings.ToLower(stringValue(val)), searchVal) {
			return true
		}
	}
	return false
}
