package analysis

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/veritylabs/fosight/internal/models"
	"gopkg.in/yaml.v3"
)

// Classifier derives coarse categorical filters from complaint text.
// It is a best-effort heuristic: implementations must never fail, only
// degrade to default filters.
type Classifier interface {
	Classify(text string) models.CaseFilters
}

// ClassifierRules maps product types and themes to trigger keywords.
type ClassifierRules struct {
	DefaultProduct string              `yaml:"default_product"`
	DefaultThemes  []string            `yaml:"default_themes"`
	Products       map[string][]string `yaml:"products"`
	Themes         map[string][]string `yaml:"themes"`
}

// DefaultClassifierRules returns the built-in keyword rules.
func DefaultClassifierRules() ClassifierRules {
	return ClassifierRules{
		DefaultProduct: "Personal Loan",
		DefaultThemes:  []string{"Affordability"},
		Products: map[string][]string{
			"Personal Loan":    {"personal loan", "loan agreement", "unsecured loan"},
			"Credit Card":      {"credit card", "card account", "credit limit"},
			"Mortgage":         {"mortgage", "remortgage", "repossession"},
			"Current Account":  {"current account", "overdraft", "direct debit"},
			"Motor Finance":    {"motor finance", "hire purchase", "pcp"},
			"Insurance Policy": {"insurance", "policy", "claim rejected"},
		},
		Themes: map[string][]string{
			"Affordability":     {"afford", "income", "creditworthiness", "irresponsible lending"},
			"Fees and Charges":  {"fee", "charge", "interest rate", "penalty"},
			"Customer Service":  {"complaint handling", "rude", "delay", "no response"},
			"Mis-selling":       {"mis-sold", "missold", "not explained", "unsuitable"},
			"Fraud and Scams":   {"fraud", "scam", "unauthorised", "authorised push payment"},
			"Vulnerability":     {"vulnerable", "mental health", "financial difficulty"},
		},
	}
}

// LoadClassifierRules reads keyword rules from a YAML file.
func LoadClassifierRules(path string) (ClassifierRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClassifierRules{}, fmt.Errorf("read classifier rules: %w", err)
	}
	var rules ClassifierRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return ClassifierRules{}, fmt.Errorf("parse classifier rules: %w", err)
	}
	if rules.DefaultProduct == "" {
		rules.DefaultProduct = DefaultClassifierRules().DefaultProduct
	}
	return rules, nil
}

// KeywordClassifier is the default keyword-matching classifier. A trained
// model can be substituted behind the Classifier interface without touching
// the pipeline.
type KeywordClassifier struct {
	rules ClassifierRules
}

// NewKeywordClassifier creates a classifier with the given rules.
func NewKeywordClassifier(rules ClassifierRules) *KeywordClassifier {
	return &KeywordClassifier{rules: rules}
}

var _ Classifier = (*KeywordClassifier)(nil)

// Classify scans the text for product and theme keywords. The product with
// the most keyword hits wins; all matched themes are returned sorted. Falls
// back to the rule defaults when nothing matches.
func (c *KeywordClassifier) Classify(text string) models.CaseFilters {
	lower := strings.ToLower(text)

	product := c.rules.DefaultProduct
	bestHits := 0
	for name, keywords := range c.rules.Products {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		// Ties resolve alphabetically so classification stays deterministic.
		if hits > bestHits || (hits == bestHits && hits > 0 && name < product) {
			product = name
			bestHits = hits
		}
	}

	var themes []string
	for name, keywords := range c.rules.Themes {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				themes = append(themes, name)
				break
			}
		}
	}
	sort.Strings(themes)
	if len(themes) == 0 {
		themes = append(themes, c.rules.DefaultThemes...)
	}

	return models.CaseFilters{
		ProductType: product,
		KeyThemes:   themes,
	}
}
