package ingest

import (
	"reflect"
	"testing"

	"github.com/cognicore/keyphrase/pkg/keyphrase/stoplist"
)

func TestPipelineProcess(t *testing.T) {
	p := NewPipeline(
		NewNormalizer(stoplist.NewManager([]string{"и"}), nil),
		NewCandidateGenerator(nil),
	)

	doc := p.Process("Данные и модель. Данные и модель! Сеть.", true)
	wantTokens := []string{"данные", "модель", "данные", "модель", "сеть"}
	if !reflect.DeepEqual(doc.Tokens, wantTokens) {
		t.Errorf("Tokens = %v, want %v", doc.Tokens, wantTokens)
	}
	wantCandidates := []string{"данные", "модель", "данные модель"}
	if !reflect.DeepEqual(doc.Candidates, wantCandidates) {
		t.Errorf("Candidates = %v, want %v", doc.Candidates, wantCandidates)
	}
}

func TestPipelineMinFrequency(t *testing.T) {
	p := NewPipeline(NewNormalizer(nil, nil), NewCandidateGenerator(nil))
	if got := p.Process("модель сеть", false).Candidates; len(got) != 0 {
		t.Errorf("default floor should drop single occurrences, got %v", got)
	}

	p.SetMinFrequency(1)
	if got := p.Process("модель сеть", false).Candidates; len(got) != 2 {
		t.Errorf("Candidates = %v, want 2", got)
	}

	p.SetMinFrequency(0)
	if got := p.Process("модель сеть", false).Candidates; len(got) != 2 {
		t.Errorf("non-positive floor should be ignored, got %v", got)
	}
}
