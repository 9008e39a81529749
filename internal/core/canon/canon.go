// Package canon maps observed company fields to their canonical form and
// derives the content hash snapshots are deduplicated on.
//
// Canonical text:
//  1. invalid UTF-8 bytes dropped
//  2. control and format characters removed (tab/newline become spaces)
//  3. Unicode NFC
//  4. whitespace runs collapsed, edges trimmed
//
// Blank text is absent. Tags are canonical text, de-blanked, de-duplicated
// and sorted, so tag order never changes the hash
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fields is the hashed portion of an observation. Empty strings are absent
type Fields struct {
	Batch       string
	Stage       string
	Website     string
	Location    string
	Description string
	TeamSize    string
	Tags        []string
}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Map(func(r rune) rune {
				if r == '\t' || r == '\n' || r == '\r' {
					return ' '
				}
				return r
			}),
			runes.Remove(runes.Predicate(func(r rune) bool {
				return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
			})),
			norm.NFC,
		)
	},
}

// Text returns the canonical form of s, "" meaning absent
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// only reachable on malformed input the chain could not consume
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// Tags canonicalizes, drops blanks, de-duplicates and sorts. Never nil
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if c := Text(t); c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Canonicalize returns f with every field in canonical form
func Canonicalize(f Fields) Fields {
	return Fields{
		Batch:       Text(f.Batch),
		Stage:       Text(f.Stage),
		Website:     Text(f.Website),
		Location:    Text(f.Location),
		Description: Text(f.Description),
		TeamSize:    Text(f.TeamSize),
		Tags:        Tags(f.Tags),
	}
}

// hashDoc fixes key order; absent text encodes as null
type hashDoc struct {
	Batch       *string  `json:"batch"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Stage       *string  `json:"stage"`
	Tags        []string `json:"tags"`
	TeamSize    *string  `json:"team_size"`
	Website     *string  `json:"website"`
}

func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Hash returns the hex SHA-256 of the canonical fixed-order JSON encoding of f.
// f is canonicalized first, so Hash(f) == Hash(Canonicalize(f))
func Hash(f Fields) string {
	c := Canonicalize(f)
	doc := hashDoc{
		Batch:       opt(c.Batch),
		Description: opt(c.Description),
		Location:    opt(c.Location),
		Stage:       opt(c.Stage),
		Tags:        c.Tags,
		TeamSize:    opt(c.TeamSize),
		Website:     opt(c.Website),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		panic("canon: marshal hash doc: " + err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// TagsText renders canonical tags as a JSON array, "" when there are none
func TagsText(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

// TeamBucket maps a headcount to the range stored as team size.
// Non-positive counts are unknown
func TeamBucket(n int) string {
	switch {
	case n <= 0:
		return ""
	case n <= 10:
		return "1-10"
	case n <= 50:
		return "11-50"
	case n <= 200:
		return "51-200"
	default:
		return "200+"
	}
}
