package prompt

import (
	"math/rand"
	"strings"
)

// Surprise fills every field that has suggestions with a random pick, keeping
// values already present in seed. The result is a fresh Request.
func (t *Template) Surprise(rnd *rand.Rand, seed Request) Request {
	out := seed.Clone()
	for _, f := range t.Fields {
		if len(f.Suggestions) == 0 || strings.TrimSpace(out[f.Key]) != "" {
			continue
		}
		out[f.Key] = f.Suggestions[rnd.Intn(len(f.Suggestions))]
	}
	return out
}
