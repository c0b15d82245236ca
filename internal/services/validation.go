package services

import (
	"strings"

	"github.com/peifeira/peifeira-api/internal/validation"
)

const (
	teamNameRules          = "min=3,max=100"
	invitationMessageRules = "max=500"
)

func validateField(field string, value any, tag string) error {
	if err := validation.Var(field, value, tag); err != nil {
		return validationError(err.Error())
	}
	return nil
}

func normalizeTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validateField("name", name, teamNameRules); err != nil {
		return "", err
	}
	return name, nil
}

// normalizeMessage trims the optional invitation message; blank becomes nil.
func normalizeMessage(msg *string) (*string, error) {
	return normalizeOptionalText("message", msg, invitationMessageRules)
}

func normalizeReason(reason *string) (*string, error) {
	return normalizeOptionalText("reason", reason, invitationMessageRules)
}

func normalizeOptionalText(field string, value *string, rules string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if err := validateField(field, trimmed, rules); err != nil {
		return nil, err
	}
	return &trimmed, nil
}
