package lead

import "strings"

// Lead is the structured result of a completed capture conversation.
// Phone is optional and may be absent from the extracted block.
type Lead struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone"`
	Requirements string  `json:"requirements"`
}

// Complete reports whether the required fields are present.
func (l Lead) Complete() bool {
	return strings.TrimSpace(l.Name) != "" && strings.TrimSpace(l.Email) != ""
}

// Values maps the lead onto the crm.lead field layout expected by the ERP.
func (l Lead) Values() map[string]any {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = "New"
	}

	values := map[string]any{
		"name":         name + " Lead",
		"contact_name": l.Name,
		"email_from":   l.Email,
		"description":  l.Requirements,
	}
	if l.Phone != nil && strings.TrimSpace(*l.Phone) != "" {
		values["phone"] = *l.Phone
	}
	return values
}
