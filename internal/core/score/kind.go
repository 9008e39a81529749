package score

import (
	"strings"

	perr "ycintel/internal/platform/errors"
)

// Kind is the closed set of field-level change kinds
type Kind uint8

// Kinds, in detector field order
const (
	KindUnknown Kind = iota
	KindStage
	KindBatch
	KindWebsite
	KindTeamSize
	KindTag
	KindDescription
	KindLocation
)

type kindSpec struct {
	name   string
	weight int
	// churn penalises stability once this many changes of the kind exist, 0 = never
	churn int
}

var kinds = [...]kindSpec{
	KindUnknown:     {name: "UNKNOWN"},
	KindStage:       {name: "STAGE_CHANGE", weight: 10},
	KindBatch:       {name: "BATCH_CHANGE", weight: 6},
	KindWebsite:     {name: "WEBSITE_CHANGE", weight: 4},
	KindTeamSize:    {name: "TEAM_SIZE_CHANGE", weight: 5},
	KindTag:         {name: "TAG_CHANGE", weight: 3},
	KindDescription: {name: "DESCRIPTION_CHANGE", weight: 2, churn: 3},
	KindLocation:    {name: "LOCATION_CHANGE", weight: 1, churn: 2},
}

// Kinds returns every known kind in detector field order
func Kinds() []Kind {
	return []Kind{KindStage, KindBatch, KindWebsite, KindTeamSize, KindTag, KindDescription, KindLocation}
}

// String is the persisted change_type value
func (k Kind) String() string {
	if k.Valid() {
		return kinds[k].name
	}
	return kinds[KindUnknown].name
}

// Valid reports whether k is a member of the closed enumeration
func (k Kind) Valid() bool { return k > KindUnknown && int(k) < len(kinds) }

// Weight is the per-kind momentum bonus
func (k Kind) Weight() int {
	if !k.Valid() {
		return 0
	}
	return kinds[k].weight
}

// ParseKind maps a persisted change_type back to a Kind
func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if kinds[k].name == s {
			return k, nil
		}
	}
	return KindUnknown, perr.Scoringf("unknown change kind %q", s)
}
