package catalog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"clinic-orders/internal/model"
)

// Reasons reported for skipped source lines.
const (
	ReasonNoItemNumber = "no item number"
	ReasonMissingName  = "missing product name"
)

// FallbackCategory is assigned when no keyword matches the product name.
const FallbackCategory = "General Supplies"

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is checked in order; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{"Food & Nutrition", []string{"food", "diet", "kibble", "treat", "nutrition", "chew", "feed", "biscuit", "supplement"}},
	{"Vaccines", []string{"vaccine", "rabies", "distemper", "bordetella", "lepto", "parvo"}},
	{"Medications", []string{"tablet", "tabs", "capsule", "caps", "penicillin", "amoxicillin", "meloxicam", "injection", "injectable", "antibiotic", "ointment", "drops", "suspension", "solution", "cream"}},
	{"Surgical Supplies", []string{"suture", "scalpel", "blade", "glove", "gauze", "syringe", "needle", "drape", "catheter", "bandage", "sponge"}},
	{"Diagnostics", []string{"test", "kit", "strip", "slide", "swab", "reagent", "tube", "cassette"}},
	{"Cleaning & Disinfection", []string{"disinfectant", "cleaner", "bleach", "sanitizer", "sanitiser", "wipes", "soap", "detergent"}},
	{"Office Supplies", []string{"paper", "pen", "label", "toner", "envelope", "folder", "printer", "stapler"}},
}

var (
	sizePattern = regexp.MustCompile(`(?i)(?:^|[\s\-])(\d+(?:[.,]\d+)?\s*(?:kg|g|mg|mcg|lbs|lb|oz|ml|l|cc|ct|pk|pcs|pack|count|ea|tabs|caps|doses))\.?\s*$`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
)

const separators = " \t-–—,;:|/"

// Result holds the outcome of parsing a catalogue source.
type Result struct {
	Parsed  []model.Product
	Skipped []model.SkippedLine
}

// Parser turns raw catalogue lines into products.
type Parser struct {
	supplier string
}

// NewParser returns a Parser that stamps every product with supplier.
func NewParser(supplier string) *Parser {
	return &Parser{supplier: supplier}
}

// Parse reads r line by line. Blank lines are ignored and do not count
// as skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	result := &Result{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		product, reason := p.ParseLine(line)
		if reason != "" {
			result.Skipped = append(result.Skipped, model.SkippedLine{
				LineNumber: lineNumber,
				Line:       line,
				Reason:     reason,
			})
			continue
		}

		result.Parsed = append(result.Parsed, product)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog source: %w", err)
	}

	return result, nil
}

// ParseLine extracts a product from one line. A non-empty reason means the
// line was skipped.
func (p *Parser) ParseLine(line string) (model.Product, string) {
	rest := strings.TrimSpace(line)

	size := ""
	if m := sizePattern.FindStringSubmatchIndex(rest); m != nil {
		size = strings.TrimSpace(rest[m[2]:m[3]])
		rest = strings.TrimSpace(rest[:m[0]])
	}

	tokens := strings.Fields(rest)
	idx := itemNumberIndex(tokens)
	if idx < 0 {
		return model.Product{}, ReasonNoItemNumber
	}
	itemNumber := strings.Trim(tokens[idx], separators)

	nameTokens := make([]string, 0, len(tokens)-1)
	nameTokens = append(nameTokens, tokens[:idx]...)
	nameTokens = append(nameTokens, tokens[idx+1:]...)
	name := strings.Trim(strings.Join(nameTokens, " "), separators)
	if name == "" {
		return model.Product{}, ReasonMissingName
	}

	return model.Product{
		ItemNumber: itemNumber,
		Name:       name,
		Size:       size,
		Category:   Categorise(name),
		Supplier:   p.supplier,
	}, ""
}

// itemNumberIndex picks the first all-digit token of 8 to 12 digits, else the
// first of at least 6 digits, else the first all-digit token. Returns -1 if
// there is none.
func itemNumberIndex(tokens []string) int {
	first, sixPlus := -1, -1
	for i, tok := range tokens {
		tok = strings.Trim(tok, separators)
		if !digitsOnly.MatchString(tok) {
			continue
		}
		n := len(tok)
		if n >= 8 && n <= 12 {
			return i
		}
		if n >= 6 && sixPlus < 0 {
			sixPlus = i
		}
		if first < 0 {
			first = i
		}
	}

	if sixPlus >= 0 {
		return sixPlus
	}
	return first
}

// Categorise maps a product name to a category by keyword.
// A keyword matches a word equal to it or to its plural.
func Categorise(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			for _, w := range words {
				if w == kw || w == kw+"s" || w == kw+"es" {
					return rule.category
				}
			}
		}
	}

	return FallbackCategory
}
