package ingest

// Pipeline orchestrates candidate preparation:
// text → normalization → candidate generation
type Pipeline struct {
	normalizer   *Normalizer
	generator    *CandidateGenerator
	minFrequency int
}

// NewPipeline creates a pipeline with the given components. Candidates must
// occur at least DefaultMinFrequency times.
func NewPipeline(normalizer *Normalizer, generator *CandidateGenerator) *Pipeline {
	return &Pipeline{
		normalizer:   normalizer,
		generator:    generator,
		minFrequency: DefaultMinFrequency,
	}
}

// SetMinFrequency overrides the candidate frequency floor.
func (p *Pipeline) SetMinFrequency(n int) {
	if n > 0 {
		p.minFrequency = n
	}
}

// ProcessedDoc represents a document after ingestion processing
type ProcessedDoc struct {
	Tokens     []string
	Candidates []string
}

// Process runs a document through the pipeline.
func (p *Pipeline) Process(text string, useBigrams bool) ProcessedDoc {
	tokens := p.normalizer.Tokens(text)
	return ProcessedDoc{
		Tokens:     Texts(tokens),
		Candidates: p.generator.GenerateTagged(tokens, useBigrams, p.minFrequency),
	}
}
