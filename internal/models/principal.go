package models

import "strings"

// Principal is the verified identity attached to an authenticated request.
type Principal struct {
	ExternalID     string   // Stable user id issued by the identity gateway
	EmailAddresses []string // Email addresses, primary first
	FirstName      *string
	LastName       *string
	ImageURL       *string
}

// PrimaryEmail returns the first email address or an empty string.
func (p *Principal) PrimaryEmail() string {
	if len(p.EmailAddresses) == 0 {
		return ""
	}
	return p.EmailAddresses[0]
}

// FullName joins the non-empty name parts with a space.
// It returns nil when neither part is present.
func (p *Principal) FullName() *string {
	var parts []string
	for _, part := range []*string{p.FirstName, p.LastName} {
		if part == nil {
			continue
		}
		if s := strings.TrimSpace(*part); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}
