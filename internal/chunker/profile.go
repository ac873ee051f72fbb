package chunker

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile carries the localized vocabulary of a document family.
type Profile struct {
	Name           string `yaml:"name"`
	ChapterKeyword string `yaml:"chapter_keyword"`
	ArticleKeyword string `yaml:"article_keyword"`
	EndSentinel    string `yaml:"end_sentinel"`
}

// Built-in profiles. Vietnamese legal texts close the substantive body
// with "./." before the signature block.
var (
	Vietnamese = Profile{
		Name:           "vi",
		ChapterKeyword: "Chương",
		ArticleKeyword: "Điều",
		EndSentinel:    "./.",
	}
	English = Profile{
		Name:           "en",
		ChapterKeyword: "Chapter",
		ArticleKeyword: "Article",
		EndSentinel:    "./.",
	}
)

var builtinProfiles = map[string]Profile{
	Vietnamese.Name: Vietnamese,
	English.Name:    English,
}

// ErrInvalidProfile is returned when a profile lacks a required keyword.
var ErrInvalidProfile = errors.New("invalid profile")

// Validate checks that both structural keywords are usable.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ChapterKeyword) == "" {
		return fmt.Errorf("%w: chapter_keyword is required", ErrInvalidProfile)
	}
	if strings.TrimSpace(p.ArticleKeyword) == "" {
		return fmt.Errorf("%w: article_keyword is required", ErrInvalidProfile)
	}
	if strings.ContainsAny(p.ChapterKeyword+p.ArticleKeyword, " \t") {
		return fmt.Errorf("%w: keywords must be single words", ErrInvalidProfile)
	}
	return nil
}

// BuiltinProfile returns the built-in profile called name, ignoring case.
func BuiltinProfile(name string) (Profile, bool) {
	p, ok := builtinProfiles[strings.ToLower(name)]
	return p, ok
}

// BuiltinProfiles lists the built-in profiles by name.
func BuiltinProfiles() []Profile {
	out := make([]Profile, 0, len(builtinProfiles))
	for _, p := range builtinProfiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupProfile resolves name as a built-in profile or, failing that, as a
// path to a YAML profile file. An empty name selects Vietnamese.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		return Vietnamese, nil
	}
	if p, ok := BuiltinProfile(name); ok {
		return p, nil
	}
	return LoadProfile(name)
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile document.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	p.ChapterKeyword = strings.TrimSpace(p.ChapterKeyword)
	p.ArticleKeyword = strings.TrimSpace(p.ArticleKeyword)
	p.EndSentinel = strings.TrimSpace(p.EndSentinel)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
