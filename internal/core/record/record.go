// Package record defines the normalized raw record a supplier yields per company
package record

import (
	"strings"

	"ycintel/internal/core/canon"
	"ycintel/internal/platform/validate"
)

// Raw is one supplier observation of one company
type Raw struct {
	Key         string   `json:"key" validate:"required,slug,max=200"`
	Name        string   `json:"name" validate:"required,max=300"`
	Active      bool     `json:"active"`
	Website     string   `json:"website,omitempty" validate:"omitempty,max=2048"`
	Batch       string   `json:"batch,omitempty" validate:"omitempty,max=64"`
	Stage       string   `json:"stage,omitempty" validate:"omitempty,max=64"`
	Location    string   `json:"location,omitempty" validate:"omitempty,max=1024"`
	Description string   `json:"description,omitempty"`
	TeamSize    string   `json:"team_size,omitempty" validate:"omitempty,max=32"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=200,dive,max=100"`
}

// Validate checks struct tags after trimming key and name
func (r *Raw) Validate() error {
	r.Key = strings.ToLower(strings.TrimSpace(r.Key))
	r.Name = canon.Text(r.Name)
	return validate.Struct(r)
}

// Fields returns the hashed portion of the record, canonicalized
func (r Raw) Fields() canon.Fields {
	return canon.Canonicalize(canon.Fields{
		Batch:       r.Batch,
		Stage:       r.Stage,
		Website:     r.Website,
		Location:    r.Location,
		Description: r.Description,
		TeamSize:    r.TeamSize,
		Tags:        r.Tags,
	})
}
