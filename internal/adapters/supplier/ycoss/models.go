package ycoss

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"ycintel/internal/core/canon"
	"ycintel/internal/core/record"
)

// company is the subset of one all.json entry we map
type company struct {
	Slug            string      `json:"slug"`
	Name            string      `json:"name"`
	Website         string      `json:"website"`
	URL             string      `json:"url"`
	Batch           string      `json:"batch"`
	Status          string      `json:"status"`
	LongDescription string      `json:"long_description"`
	OneLiner        string      `json:"one_liner"`
	AllLocations    string      `json:"all_locations"`
	Tags            []string    `json:"tags"`
	TeamSize        teamSize    `json:"team_size"`
}

// teamSize accepts 42, 42.0, "42" and "1,200". null and free text such as
// "unknown" decode to zero, meaning no bucket
type teamSize int

func (t *teamSize) UnmarshalJSON(b []byte) error {
	*t = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 1 {
		return nil
	}
	*t = teamSize(f)
	return nil
}

// entryKey pulls just the slug out of an entry that failed to decode
func entryKey(raw json.RawMessage) string {
	var k struct {
		Slug any `json:"slug"`
	}
	if json.Unmarshal(raw, &k) != nil {
		return ""
	}
	s, _ := k.Slug.(string)
	return strings.ToLower(strings.TrimSpace(s))
}

// toRecord maps one listing entry. Missing status reads as Active, the
// listing's own default; team size is bucketed
func (c company) toRecord() record.Raw {
	name := c.Name
	if strings.TrimSpace(name) == "" {
		name = c.Slug
	}
	site := c.Website
	if strings.TrimSpace(site) == "" {
		site = c.URL
	}
	desc := c.LongDescription
	if strings.TrimSpace(desc) == "" {
		desc = c.OneLiner
	}
	stage := c.Status
	if strings.TrimSpace(stage) == "" {
		stage = "Active"
	}
	var team string
	if c.TeamSize > 0 {
		team = canon.TeamBucket(int(c.TeamSize))
	}
	return record.Raw{
		Key:         strings.ToLower(strings.TrimSpace(c.Slug)),
		Name:        name,
		Active:      true,
		Website:     site,
		Batch:       c.Batch,
		Stage:       stage,
		Location:    c.AllLocations,
		Description: desc,
		TeamSize:    team,
		Tags:        c.Tags,
	}
}
