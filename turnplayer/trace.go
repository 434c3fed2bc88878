package turnplayer

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/quarto/search"
)

type traceCandidate struct {
	Pos   *int    `yaml:"pos,omitempty"`
	Piece string  `yaml:"piece,omitempty"`
	Score float64 `yaml:"score"`
}

type searchTrace struct {
	Decision    string             `yaml:"decision"`
	Fingerprint string             `yaml:"fingerprint"`
	Depth       int                `yaml:"depth"`
	Nodes       uint64             `yaml:"nodes"`
	ElapsedMS   int64              `yaml:"elapsed_ms"`
	Candidates  []traceCandidate   `yaml:"candidates,flow"`
	Chosen      string             `yaml:"chosen"`
	Fallback    bool               `yaml:"fallback,omitempty"`
	TTable      *search.TableStats `yaml:"ttable,omitempty"`
}

func (p *Player) writeTrace(tr *searchTrace) {
	if p.logStream == nil {
		return
	}
	out, err := yaml.Marshal([]*searchTrace{tr})
	if err != nil {
		log.Err(err).Msg("marshal-search-trace")
		return
	}
	if _, err := p.logStream.Write(out); err != nil {
		log.Err(err).Msg("write-search-trace")
	}
}

func fingerprintString(f uint64) string {
	return fmt.Sprintf("%016x", f)
}
