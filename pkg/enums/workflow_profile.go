package enums

import (
	"fmt"
	"strings"
)

// WorkflowProfile selects the poll cadence and execution ceiling for an item.
type WorkflowProfile string

const (
	WorkflowProfileStandard WorkflowProfile = "STANDARD"
	WorkflowProfileExpress  WorkflowProfile = "EXPRESS"
)

func (p WorkflowProfile) String() string {
	return string(p)
}

func (p WorkflowProfile) IsValid() bool {
	return p == WorkflowProfileStandard || p == WorkflowProfileExpress
}

// ParseWorkflowProfile is case-insensitive; an empty value yields STANDARD.
func ParseWorkflowProfile(value string) (WorkflowProfile, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return WorkflowProfileStandard, nil
	}
	profile := WorkflowProfile(trimmed)
	if !profile.IsValid() {
		return "", fmt.Errorf("invalid workflow profile %q", value)
	}
	return profile, nil
}
