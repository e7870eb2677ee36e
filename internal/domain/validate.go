package domain

import "strings"

// Validation messages shown to the user. They are part of the API surface:
// clients match on them to highlight fields.
const (
	MsgLocationRequired    = "Location is required"
	MsgDateRequired        = "Date is required"
	MsgDateFormat          = "Date must be YYYY-MM-DD"
	MsgDescriptionRequired = "Description is required"
	MsgMemberRequired      = "At least one member is required"
)

// ValidateTrip enforces the required-field rules for create and update.
// All violations are collected so the caller can report them at once.
func ValidateTrip(t Trip) error {
	var v []string
	if strings.TrimSpace(t.Location) == "" {
		v = append(v, MsgLocationRequired)
	}
	if t.Date.IsZero() {
		v = append(v, MsgDateRequired)
	}
	if strings.TrimSpace(t.Description) == "" {
		v = append(v, MsgDescriptionRequired)
	}
	if len(nonBlank(t.Members)) == 0 {
		v = append(v, MsgMemberRequired)
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

// ValidatePatch applies the required-field rules to the fields a patch sets.
// Fields left nil are not checked.
func ValidatePatch(p TripPatch) error {
	var v []string
	if p.Location != nil && strings.TrimSpace(*p.Location) == "" {
		v = append(v, MsgLocationRequired)
	}
	if p.Date != nil && p.Date.IsZero() {
		v = append(v, MsgDateRequired)
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		v = append(v, MsgDescriptionRequired)
	}
	if p.Members != nil && len(nonBlank(p.Members)) == 0 {
		v = append(v, MsgMemberRequired)
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

// SplitMembers parses the comma-separated members field of the form.
// Blank entries are dropped; order is preserved.
func SplitMembers(text string) []string {
	out := []string{}
	for _, m := range strings.Split(text, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
