package seed

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

var defaultSkills = []string{
	"Go", "Python", "JavaScript", "Rust", "SQL", "Kubernetes", "Machine Learning",
	"Photography", "Guitar", "Spanish", "Drawing", "Public Speaking", "Cooking",
	"Data Visualization", "UX Design", "Woodworking",
}

// Preset is a named bundle of seeding volumes.
type Preset struct {
	Users           int      `yaml:"users"`
	Posts           int      `yaml:"posts"`
	FollowsPerUser  int      `yaml:"follows_per_user"`
	PlansPerUser    int      `yaml:"plans_per_user"`
	ProgressPerUser int      `yaml:"progress_per_user"`
	CommentsPerPost int      `yaml:"comments_per_post"`
	MaxDays         int      `yaml:"max_days"`
	Skills          []string `yaml:"skills"`
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// ParsePresets decodes a presets document.
func ParsePresets(raw []byte) (map[string]Preset, error) {
	var doc presetFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(doc.Presets) == 0 {
		return nil, fmt.Errorf("parse presets: no presets defined")
	}
	return doc.Presets, nil
}

// LoadPresets returns the built-in presets, overlaid with those in path when
// path is non-empty.
func LoadPresets(path string) (map[string]Preset, error) {
	presets, err := ParsePresets(builtinPresets)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return presets, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	extra, err := ParsePresets(raw)
	if err != nil {
		return nil, err
	}
	for name, p := range extra {
		presets[name] = p
	}
	return presets, nil
}

// PresetNames lists preset names in a stable order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the non-zero preset values onto opts.
func (p Preset) Apply(opts Options) Options {
	if p.Users > 0 {
		opts.NumUsers = p.Users
	}
	if p.Posts > 0 {
		opts.NumPosts = p.Posts
	}
	if p.FollowsPerUser > 0 {
		opts.FollowsPerUser = p.FollowsPerUser
	}
	if p.PlansPerUser > 0 {
		opts.PlansPerUser = p.PlansPerUser
	}
	if p.ProgressPerUser > 0 {
		opts.ProgressPerUser = p.ProgressPerUser
	}
	if p.CommentsPerPost > 0 {
		opts.CommentsPerPost = p.CommentsPerPost
	}
	if p.MaxDays > 0 {
		opts.MaxDays = p.MaxDays
	}
	if len(p.Skills) > 0 {
		opts.Skills = p.Skills
	}
	return opts
}

// ApplyPreset resolves name against presets and applies it to opts.
func ApplyPreset(opts Options, presets map[string]Preset, name string) (Options, error) {
	p, ok := presets[name]
	if !ok {
		return opts, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames(presets))
	}
	return p.Apply(opts), nil
}
