package chart

import "vizgo/domain/core"

// ResultVariable is the name every candidate program must leave bound to its chart object.
const ResultVariable = "chart"

// Candidate is one externally generated program targeting a library.
type Candidate struct {
	Index   int     `json:"index"`
	Source  string  `json:"source"`
	Library Library `json:"library"`
}

// NewCandidates tags each source with the library and its position in the batch.
func NewCandidates(sources []string, lib Library) []Candidate {
	out := make([]Candidate, len(sources))
	for i, src := range sources {
		out[i] = Candidate{Index: i, Source: src, Library: lib}
	}
	return out
}

// Hash identifies the candidate by content, independent of its batch position.
func (c Candidate) Hash() core.Hash {
	return core.NewHash([]byte(string(c.Library) + "\x00" + c.Source))
}
