package render

import "leetfresh/internal/models"

// Lookup indexes one snapshot generation by slug.
type Lookup struct {
	generation uint64
	bySlug     map[string]models.SolvedProblem
}

func NewLookup(snap *models.FreshnessSnapshot) *Lookup {
	if snap == nil {
		return &Lookup{bySlug: map[string]models.SolvedProblem{}}
	}
	l := &Lookup{
		generation: snap.Generation,
		bySlug:     make(map[string]models.SolvedProblem, len(snap.Problems)),
	}
	for _, p := range snap.Problems {
		l.bySlug[p.TitleSlug] = p
	}
	return l
}

func (l *Lookup) Get(slug string) (models.SolvedProblem, bool) {
	p, ok := l.bySlug[slug]
	return p, ok
}

func (l *Lookup) Generation() uint64 {
	return l.generation
}

func (l *Lookup) Len() int {
	return len(l.bySlug)
}
