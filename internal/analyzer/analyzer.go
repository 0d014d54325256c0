// Package analyzer derives structured additive warnings from free-text
// ingredient lists. It is pure and deterministic: no I/O, no state.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/openpantry/barcode-resolver/internal/models"
)

// rule is one detection pattern. Rules with a name recognize a specific named
// compound and carry its label; the trailing generic rule recognizes any
// E-number token and labels it from the code table.
type rule struct {
	name    string
	typ     string
	code    string
	pattern *regexp.Regexp
}

// Rules are matched independently and in order: a specific named match and a
// generic E-number match may both fire on the same text and are not
// deduplicated against each other. Only duplicate textual matches for the
// same rule collapse.
var rules = []rule{
	{"Monosodium Glutamate", "flavor enhancer", "E621", regexp.MustCompile(`(?i)\bmonosodium glutamate\b|\bMSG\b`)},
	{"Aspartame", "sweetener", "E951", regexp.MustCompile(`(?i)\baspartame\b`)},
	{"Sodium Nitrite", "preservative", "E250", regexp.MustCompile(`(?i)\bsodium nitrite\b`)},
	{"Sodium Benzoate", "preservative", "E211", regexp.MustCompile(`(?i)\bsodium benzoate\b`)},
	{"Potassium Sorbate", "preservative", "E202", regexp.MustCompile(`(?i)\bpotassium sorbate\b`)},
	{"Tartrazine", "color", "E102", regexp.MustCompile(`(?i)\btartrazine\b|\byellow (?:no\.? )?5\b`)},
	{"Allura Red", "color", "E129", regexp.MustCompile(`(?i)\ballura red\b|\bred (?:no\.? )?40\b`)},
	{"BHA", "antioxidant", "E320", regexp.MustCompile(`(?i)\bBHA\b|\bbutylated hydroxyanisole\b`)},
	{"BHT", "antioxidant", "E321", regexp.MustCompile(`(?i)\bBHT\b|\bbutylated hydroxytoluene\b`)},
	{"Carrageenan", "thickener", "E407", regexp.MustCompile(`(?i)\bcarrageenan\b`)},
	{"Sulfites", "preservative", "E220", regexp.MustCompile(`(?i)\bsodium (?:bi|meta(?:bi)?)?sul(?:f|ph)ite\b|\bsul(?:f|ph)ur dioxide\b`)},
	{"High Fructose Corn Syrup", "sweetener", "", regexp.MustCompile(`(?i)\bhigh[- ]fructose corn syrup\b|\bHFCS\b`)},
	{"", "", "", eNumberPattern},
}

var eNumberPattern = regexp.MustCompile(`(?i)\bE[0-9]{3}[a-z]?\b`)

type codeInfo struct {
	typ      string
	concerns []string
}

// codeTable maps additive codes to their label and known concerns. Codes
// absent from the table yield an empty concerns list, not an error.
var codeTable = map[string]codeInfo{
	"E102": {"color", []string{"hyperactivity in children", "asthma attacks"}},
	"E129": {"color", []string{"hyperactivity in children", "allergic reactions"}},
	"E211": {"preservative", []string{"may form benzene with ascorbic acid", "hyperactivity in children"}},
	"E220": {"preservative", []string{"asthma attacks", "sulfite sensitivity"}},
	"E250": {"preservative", []string{"forms nitrosamines at high heat", "linked to processed meat risks"}},
	"E320": {"antioxidant", []string{"possible carcinogen"}},
	"E321": {"antioxidant", []string{"possible carcinogen"}},
	"E407": {"thickener", []string{"digestive inflammation"}},
	"E621": {"flavor enhancer", []string{"headaches", "allergic reactions", "possible excitotoxin"}},
	"E951": {"sweetener", []string{"headaches", "unsuitable for phenylketonuria"}},
}

// Analyze scans ingredient text and returns one finding per distinct match of
// each rule, ordered by the rule list. Empty input yields an empty list.
func Analyze(text string) []models.AdditiveFinding {
	if strings.TrimSpace(text) == "" {
		return []models.AdditiveFinding{}
	}

	findings := []models.AdditiveFinding{}
	for _, r := range rules {
		for _, match := range distinctMatches(r.pattern, text) {
			if r.name == "" {
				findings = append(findings, genericFinding(match))
				continue
			}
			code := r.code
			if code == "" {
				code = match
			}
			findings = append(findings, models.AdditiveFinding{
				Name:     r.name,
				Type:     r.typ,
				Code:     code,
				Concerns: concernsFor(code),
			})
		}
	}
	return findings
}

// distinctMatches returns the case-normalized distinct substrings matched by
// the pattern, in order of first occurrence.
func distinctMatches(pattern *regexp.Regexp, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// genericFinding labels a bare E-number token from the code table when the
// code is known, otherwise as a plain additive.
func genericFinding(match string) models.AdditiveFinding {
	code := strings.ToUpper(match)
	typ := "additive"
	if info, ok := codeTable[code]; ok {
		typ = info.typ
	}
	return models.AdditiveFinding{
		Name:     code,
		Type:     typ,
		Code:     code,
		Concerns: concernsFor(code),
	}
}

func concernsFor(code string) []string {
	if info, ok := codeTable[strings.ToUpper(code)]; ok && info.concerns != nil {
		return info.concerns
	}
	return []string{}
}
