// Package practice holds the drill-building and session-state layer that sits
// between the alignment core and the HTTP API: curated phrase sets, drill
// phrases derived from scored attempts, and per-session synthesized-audio
// caching with concurrent prefetch.
package practice

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// PhraseSetFile is the top-level structure of a Recite phrase-set YAML file.
//
// Example:
//
//	set:
//	  name: "Courtroom vocabulary"
//	  language: en
//	  voice: aura-2-draco-en
//	phrases:
//	  - text: "The evidentiary hearing is adjourned."
//	    hint: "ev-ih-DEN-shee-air-ee"
//	  - text: "Objection sustained."
type PhraseSetFile struct {
	Set     SetMeta  `yaml:"set" json:"set"`
	Phrases []Phrase `yaml:"phrases" json:"phrases"`
}

// SetMeta holds top-level metadata for a phrase set.
type SetMeta struct {
	// Name is the set's display name.
	Name string `yaml:"name" json:"name"`

	// Language is the BCP-47 language the phrases are written in.
	Language string `yaml:"language" json:"language,omitempty"`

	// Voice optionally overrides the default TTS voice for this set.
	Voice string `yaml:"voice" json:"voice,omitempty"`
}

// Phrase is one practice phrase within a set.
type Phrase struct {
	// Text is the sentence the reader should read aloud.
	Text string `yaml:"text" json:"text"`

	// Hint is an optional pronunciation note shown alongside the phrase.
	Hint string `yaml:"hint,omitempty" json:"hint,omitempty"`
}

// LoadPhraseSetFile reads and parses a phrase-set YAML file from disk.
// Returns a descriptive error if the file cannot be opened or parsed.
func LoadPhraseSetFile(path string) (*PhraseSetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("practice: open phrase set %q: %w", path, err)
	}
	defer f.Close()

	ps, err := LoadPhraseSetFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("practice: parse phrase set %q: %w", path, err)
	}
	return ps, nil
}

// LoadPhraseSetFromReader parses phrase-set YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadPhraseSetFromReader(r io.Reader) (*PhraseSetFile, error) {
	var ps PhraseSetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown top-level keys to catch typos
	if err := dec.Decode(&ps); err != nil {
		return nil, fmt.Errorf("practice: decode phrase set yaml: %w", err)
	}
	if err := validatePhraseSet(&ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// LoadPhraseSets loads every listed phrase-set file. Any failing file aborts
// the load so a typo in one set is caught at startup rather than at request
// time.
func LoadPhraseSets(paths []string) ([]PhraseSetFile, error) {
	sets := make([]PhraseSetFile, 0, len(paths))
	for _, p := range paths {
		ps, err := LoadPhraseSetFile(p)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *ps)
	}
	return sets, nil
}

func validatePhraseSet(ps *PhraseSetFile) error {
	if ps.Set.Name == "" {
		return fmt.Errorf("practice: phrase set has no name")
	}
	if len(ps.Phrases) == 0 {
		return fmt.Errorf("practice: phrase set %q has no phrases", ps.Set.Name)
	}
	for i, p := range ps.Phrases {
		if p.Text == "" {
			return fmt.Errorf("practice: phrase set %q: phrase %d has empty text", ps.Set.Name, i)
		}
	}
	return nil
}
