package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix  = "<"
	choicePlaceholderSuffix  = ">"
	choiceSeparatorLiteral   = "|"
	choiceTypeNameConstant   = "string"
	choiceUsageEmptyTemplate = "`%s`"
	choiceUsageFullTemplate  = "`%s` %s"
	choiceParseErrorTemplate = "invalid value %q, expected one of %s"
)

// AddChoiceFlag registers a string flag restricted to choices, compared case-insensitively.
// An empty default leaves the flag unset so configuration values apply.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	if target != nil {
		*target = defaultChoice
	}
	flagSet.Var(&choiceFlagValue{target: target, choices: choices}, name, FormatChoiceUsage(defaultChoice, choices, usage))
}

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	return formatPlaceholderUsage(placeholder, description)
}

type choiceFlagValue struct {
	target  *string
	choices []string
}

func (value *choiceFlagValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if strings.ToLower(strings.TrimSpace(choice)) != normalizedValue {
			continue
		}
		if value.target != nil {
			*value.target = normalizedValue
		}
		return nil
	}
	return fmt.Errorf(choiceParseErrorTemplate, rawValue, strings.Join(value.choices, ", "))
}

func (value *choiceFlagValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

func (value *choiceFlagValue) Type() string {
	return choiceTypeNameConstant
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(trimmedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	return highlighted
}

func formatPlaceholderUsage(placeholder string, description string) string {
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, trimmedDescription)
}
