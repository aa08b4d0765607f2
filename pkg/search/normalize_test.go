package search

import "testing"

func TestNormalizeParsesLineColumn(t *testing.T) {
	raw := map[string]any{
		"line":   "jean@example.com:hunter2",
		"source": "dump1",
	}

	out := Normalize(raw, "breach2023")

	if out["_source"] != "breach2023" {
		t.Errorf("_source = %v, want dataset key", out["_source"])
	}
	if out["_raw"] != "jean@example.com:hunter2" {
		t.Errorf("_raw = %v, want the original line", out["_raw"])
	}
	if out["email"] != "jean@example.com" {
		t.Errorf("email = %v, want parsed address", out["email"])
	}
	if out["password"] != "hunter2" {
		t.Errorf("password = %v, want parsed credential", out["password"])
	}
	if out["source"] != "dump1" {
		t.Errorf("source = %v, want the row's own source hint", out["source"])
	}
}

func TestNormalizeColumnCaseInsensitive(t *testing.T) {
	raw := map[string]any{"LINE": "alice:secret"}
	out := Normalize(raw, "ds")
	if out["identifiant"] != "alice" {
		t.Errorf("identifiant = %v, column casing must not matter", out["identifiant"])
	}
}

func TestNormalizeC1LineColumn(t *testing.T) {
	// Some dumps keep shadow-style column names in a plain table; c1 is
	// one of the recognized line-like names.
	raw := map[string]any{"c1": "bob:pw123"}
	out := Normalize(raw, "ds")
	if out["identifiant"] != "bob" {
		t.Errorf("identifiant = %v, want parsed c1 value", out["identifiant"])
	}
	if out["_raw"] != "bob:pw123" {
		t.Errorf("_raw = %v, want the raw line", out["_raw"])
	}
}

func TestNormalizeStructuredPassthrough(t *testing.T) {
	raw := map[string]any{
		"email":  "a@b.example",
		"nom":    "Dupont",
		"rowNum": int64(7),
	}
	out := Normalize(raw, "people")

	if out["_source"] != "people" {
		t.Errorf("_source = %v, want dataset key", out["_source"])
	}
	if out["email"] != "a@b.example" || out["nom"] != "Dupont" {
		t.Errorf("structured columns must pass through, got %v", out)
	}
	if _, ok := out["rowNum"]; ok {
		t.Error("rowNum bookkeeping column must be dropped")
	}
	if _, ok := out["_raw"]; ok {
		t.Error("structured rows have no _raw line")
	}
}

func TestNormalizeByteSliceValues(t *testing.T) {
	raw := map[string]any{"line": []byte("alice:secret")}
	out := Normalize(raw, "ds")
	if out["identifiant"] != "alice" {
		t.Errorf("identifiant = %v, []byte columns must be treated as text", out["identifiant"])
	}
}
