package models

import (
	"encoding/json"
	"strings"
)

// Rank holds a dictionary frequency or level marker. The external
// annotation format writes these as either numbers or strings.
type Rank string

func (r *Rank) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*r = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*r = Rank(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = Rank(n.String())
	return nil
}

// VocabEntry is one dictionary lookup in the transcript annotation format.
type VocabEntry struct {
	Word        string `json:"word"`
	Phonetic    string `json:"phonetic,omitempty"`
	Definition  string `json:"definition,omitempty"`
	Translation string `json:"translation,omitempty"`
	Pos         string `json:"pos,omitempty"`
	Collins     Rank   `json:"collins,omitempty"`
	Oxford      Rank   `json:"oxford,omitempty"`
	Tag         string `json:"tag,omitempty"`
	BNC         Rank   `json:"bnc,omitempty"`
	Frq         Rank   `json:"frq,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Audio       string `json:"audio,omitempty"`
}

// VocabWord ties a surface form in the transcript to its dictionary entry.
type VocabWord struct {
	Original string     `json:"original"`
	Entry    VocabEntry `json:"entry"`
}

// VocabBlock is one time-stamped transcript block with per-word lookups.
type VocabBlock struct {
	Index int         `json:"index"`
	Start string      `json:"start"`
	End   string      `json:"end"`
	Text  string      `json:"text"`
	Words []VocabWord `json:"words"`
}

// VocabDocument is the full annotation file. WordMap holds one entry per
// distinct word and is the deduplication source for card imports.
type VocabDocument struct {
	Source  string                `json:"source"`
	Path    string                `json:"path"`
	Blocks  []VocabBlock          `json:"blocks"`
	WordMap map[string]VocabEntry `json:"word_map"`
}
