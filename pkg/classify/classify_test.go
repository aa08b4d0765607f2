package classify

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  Kind
		ok    bool
	}{
		{"email", "jean.dupont@example.com", KindEmail, true},
		{"email with plus", "j+tag@mail.example.org", KindEmail, true},
		{"ipv4", "192.168.1.1", KindIP, true},
		{"ipv4 out of range still matches", "999.999.999.999", KindIP, true},
		{"phone international", "+33612345678", KindPhone, true},
		{"phone spaced", "06 12 34 56 78", KindPhone, true},
		{"md5", "5f4dcc3b5aa765d61d8327deb882cf99", KindHash, true},
		{"sha1", "da39a3ee5e6b4b0d3255bfef95601890afd80709", KindHash, true},
		{"salted sha1", "da39a3ee5e6b4b0d3255bfef95601890afd80709:s4lt", KindHash, true},
		{"url", "https://example.com/login", KindURL, true},
		{"url http", "http://example.com", KindURL, true},
		{"iban", "FR7630006000011234567890189", KindIBAN, true},
		{"bic 8", "BNPAFRPP", KindBIC, true},
		{"bic 11", "BNPAFRPPXXX", KindBIC, true},
		{"date slash", "12/05/1990", KindBirthDate, true},
		{"date iso", "1990-05-12", KindBirthDate, true},
		{"date dotted", "01.01.2000", KindBirthDate, true},
		{"postal code", "75001", KindPostalCode, true},
		{"address", "12 rue de la Paix", KindAddress, true},
		{"civility", "Mme", KindCivility, true},
		{"civility single letter", "F", KindCivility, true},
		{"vin", "VF1RFB00553362123", KindVIN, true},

		{"postal below range", "00500", 0, false},
		{"plain word", "Dupont", 0, false},
		{"password like", "password123", 0, false},
		{"vin needs a digit", "ABCDEFGHIJKLMNOPQ", 0, false},
		{"lowercase not bic", "bnpafrpp", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.token)
			if ok != tt.ok {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.token, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Classify(%q) = %v (%s), want %v (%s)",
					tt.token, got, got.FieldName(), tt.want, tt.want.FieldName())
			}
		})
	}
}

// Rule order is part of the contract: a token matching several patterns
// must always resolve to the earliest rule.
func TestClassifyRuleOrder(t *testing.T) {
	// Looks like an email, and its local part is numeric like a phone.
	if kind, ok := Classify("0612345678@example.com"); !ok || kind != KindEmail {
		t.Errorf("email rule must win over phone, got %v ok=%v", kind, ok)
	}
	// Five digits match both nothing-phone (too short) and postal code.
	if kind, ok := Classify("31000"); !ok || kind != KindPostalCode {
		t.Errorf("five digits must classify as postal code, got %v ok=%v", kind, ok)
	}
	// Ten digits have enough digits for a phone, never a postal code.
	if kind, ok := Classify("0612345678"); !ok || kind != KindPhone {
		t.Errorf("ten digits must classify as phone, got %v ok=%v", kind, ok)
	}
}

// Classify must be total: any input returns cleanly.
func TestClassifyNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		" ",
		strings.Repeat("a", 10000),
		"héllo wörld",
		"日本語トークン",
		"\x00\xff\xfe",
		"::::;;;;||||",
	}
	for _, in := range inputs {
		if _, ok := Classify(in); in == "" && ok {
			t.Errorf("empty token must not classify")
		}
	}
}

func TestFieldName(t *testing.T) {
	kinds := []Kind{
		KindEmail, KindIP, KindPhone, KindHash, KindURL, KindIBAN,
		KindBIC, KindBirthDate, KindPostalCode, KindAddress, KindCivility, KindVIN,
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		name := k.FieldName()
		if name == "" {
			t.Errorf("kind %v has no field name", k)
		}
		if seen[name] {
			t.Errorf("field name %q is used by more than one kind", name)
		}
		seen[name] = true
	}
}

func TestIsHash(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"5f4dcc3b5aa765d61d8327deb882cf99", true},
		{"da39a3ee5e6b4b0d3255bfef95601890afd80709:salt", true},
		{strings.Repeat("ab", 64), true},
		{"5f4dcc3b", false},
		{"zf4dcc3b5aa765d61d8327deb882cf99", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHash(tt.token); got != tt.want {
			t.Errorf("IsHash(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
