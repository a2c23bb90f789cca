package run

import (
	"strings"

	"vizgo/domain/chart"
	"vizgo/domain/core"
)

// Fingerprint identifies the inputs of a run so identical requests over
// identical generated code can be recognised when replaying history.
func Fingerprint(datasetName, question, library string, candidates []chart.Candidate) core.Hash {
	parts := []string{"dataset:" + datasetName, "question:" + question, "library:" + library}
	for _, c := range candidates {
		parts = append(parts, "candidate:"+c.Hash().String())
	}
	return core.NewHash([]byte(strings.Join(parts, "|")))
}
