package engine

import (
	"strings"

	"habitline/internal/storage"
)

// ParseCategory parses user input to a Category.
// Supported: mental/mind, fisico/physical/body, espiritual/spiritual/spirit.
func ParseCategory(input string) (storage.Category, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "mental", "mind", "m":
		return storage.CategoryMental, nil
	case "fisico", "físico", "physical", "body", "f", "b":
		return storage.CategoryPhysical, nil
	case "espiritual", "spiritual", "spirit", "e", "s":
		return storage.CategorySpiritual, nil
	default:
		return "", ValidationError{Field: "category", Reason: "expected mind|body|spirit, got " + quote(input)}
	}
}

// ParseFrequency parses a recurrence class. Empty input means daily.
func ParseFrequency(input string) (storage.Frequency, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "", "daily", "short", "d":
		return storage.FrequencyDaily, nil
	case "weekly", "medium", "w":
		return storage.FrequencyWeekly, nil
	case "monthly", "long", "m":
		return storage.FrequencyMonthly, nil
	default:
		return "", ValidationError{Field: "frequency", Reason: "expected daily|weekly|monthly, got " + quote(input)}
	}
}

func ParsePlanKind(input string) (PlanKind, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "language", "english", "lang":
		return PlanLanguage, nil
	case "spiritual", "spirit":
		return PlanSpiritual, nil
	default:
		return "", ValidationError{Field: "plan", Reason: "expected language|spiritual, got " + quote(input)}
	}
}

func ParseChallengeKind(input string) (storage.ChallengeKind, error) {
	k := storage.ChallengeKind(strings.TrimSpace(strings.ToLower(input)))
	if !k.IsValid() {
		return "", invalidChallenge(input)
	}
	return k, nil
}

func invalidChallenge(kind string) ValidationError {
	return ValidationError{Field: "challenge", Reason: "expected social|savings, got " + quote(kind)}
}

// CategoryLabel is the display name of a category.
func CategoryLabel(c storage.Category) string {
	switch c {
	case storage.CategoryMental:
		return "Mind"
	case storage.CategoryPhysical:
		return "Body"
	case storage.CategorySpiritual:
		return "Spirit"
	default:
		return string(c)
	}
}

func normalizeText(field, text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ValidationError{Field: field, Reason: "is required"}
	}
	return t, nil
}

func quote(s string) string {
	return `"` + s + `"`
}
