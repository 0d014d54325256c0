package analyzer

import (
	"reflect"
	"testing"

	"github.com/openpantry/barcode-resolver/internal/models"
)

func findByCode(findings []models.AdditiveFinding, code string) (models.AdditiveFinding, bool) {
	for _, f := range findings {
		if f.Code == code {
			return f, true
		}
	}
	return models.AdditiveFinding{}, false
}

func TestAnalyzeIngredientScenario(t *testing.T) {
	findings := Analyze("Water, Monosodium Glutamate, Red 40, E250")

	msg, ok := findByCode(findings, "E621")
	if !ok {
		t.Fatalf("expected an E621 finding, got %+v", findings)
	}
	if msg.Type != "flavor enhancer" {
		t.Errorf("expected type 'flavor enhancer', got %q", msg.Type)
	}
	wantConcerns := []string{"headaches", "allergic reactions", "possible excitotoxin"}
	if !reflect.DeepEqual(msg.Concerns, wantConcerns) {
		t.Errorf("expected concerns %v, got %v", wantConcerns, msg.Concerns)
	}

	nitrite, ok := findByCode(findings, "E250")
	if !ok {
		t.Fatalf("expected an E250 finding, got %+v", findings)
	}
	if nitrite.Type != "preservative" {
		t.Errorf("expected type 'preservative', got %q", nitrite.Type)
	}

	if _, ok := findByCode(findings, "E129"); !ok {
		t.Errorf("expected Red 40 to yield an E129 finding, got %+v", findings)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	text := "Sugar, aspartame, tartrazine, carrageenan, E202, E330"
	first := Analyze(text)
	second := Analyze(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical findings on repeated analysis:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		if findings := Analyze(text); len(findings) != 0 {
			t.Errorf("expected no findings for %q, got %+v", text, findings)
		}
	}
}

func TestAnalyzeOrderedByRuleList(t *testing.T) {
	// The generic E-number rule is last, so the MSG finding precedes the
	// bare E250 token even though E250 appears first in the text.
	findings := Analyze("E250 and monosodium glutamate")
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %+v", findings)
	}
	if findings[0].Code != "E621" || findings[1].Code != "E250" {
		t.Errorf("expected rule-list order [E621 E250], got [%s %s]", findings[0].Code, findings[1].Code)
	}
}

func TestAnalyzeDeduplicatesPerRule(t *testing.T) {
	findings := Analyze("E250, e250, E250")
	if len(findings) != 1 {
		t.Errorf("expected case-normalized matches to collapse to one finding, got %+v", findings)
	}
}

func TestAnalyzeSpecificAndGenericBothFire(t *testing.T) {
	findings := Analyze("Monosodium Glutamate (E621)")
	if len(findings) != 2 {
		t.Fatalf("expected both the named rule and the E-number rule to fire, got %+v", findings)
	}
	if findings[0].Name != "Monosodium Glutamate" || findings[1].Name != "E621" {
		t.Errorf("unexpected findings: %+v", findings)
	}
}

func TestAnalyzeUnknownCode(t *testing.T) {
	findings := Analyze("contains E999")
	if len(findings) != 1 {
		t.Fatalf("expected one finding, got %+v", findings)
	}
	f := findings[0]
	if f.Type != "additive" {
		t.Errorf("expected generic type 'additive', got %q", f.Type)
	}
	if f.Concerns == nil || len(f.Concerns) != 0 {
		t.Errorf("expected empty concerns list, got %#v", f.Concerns)
	}
}

func TestAnalyzeCodeDefaultsToMatchedText(t *testing.T) {
	findings := Analyze("high fructose corn syrup")
	if len(findings) != 1 {
		t.Fatalf("expected one finding, got %+v", findings)
	}
	if findings[0].Code != "high fructose corn syrup" {
		t.Errorf("expected code to default to the matched text, got %q", findings[0].Code)
	}
}
