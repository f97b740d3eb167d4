package rank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/keyphrase/pkg/keyphrase/embed"
	"github.com/cognicore/keyphrase/pkg/keyphrase/ingest"
	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
)

const sampleText = "модель модель данные данные сеть сеть"

// fakeProvider embeds multi-word texts (documents and chunks) as docVec and
// single words from the table. Words listed in fail return an error.
type fakeProvider struct {
	docVec []float32
	words  map[string][]float32
	fail   map[string]bool
}

func (p fakeProvider) Embed(_ context.Context, batch []string) ([][]float32, error) {
	out := make([][]float32, len(batch))
	for i, text := range batch {
		if p.fail[text] {
			return nil, errors.New("embedding failed")
		}
		if strings.Contains(text, " ") {
			if p.docVec == nil {
				return nil, errors.New("document too long")
			}
			out[i] = p.docVec
			continue
		}
		out[i] = p.words[text]
	}
	return out, nil
}

func newPipeline() *ingest.Pipeline {
	return ingest.NewPipeline(ingest.NewNormalizer(nil, nil), ingest.NewCandidateGenerator(nil))
}

func newRanker(t *testing.T, p embed.Provider, opts ...Option) *Ranker {
	t.Helper()
	r, err := New(newPipeline(), p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Release)
	return r
}

func sampleProvider() fakeProvider {
	return fakeProvider{
		docVec: []float32{1, 0},
		words: map[string][]float32{
			"модель": {1, 0},
			"данные": {1, 1},
			"сеть":   {0, 1},
		},
	}
}

func TestExtractRanksBySimilarity(t *testing.T) {
	r := newRanker(t, sampleProvider())

	got, err := r.Extract(context.Background(), sampleText, false, 0.5, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	texts := Texts(got)
	if len(texts) != 2 || texts[0] != "модель" || texts[1] != "данные" {
		t.Fatalf("Extract = %v, want [модель данные]", got)
	}
	for _, kw := range got {
		if kw.Score <= 0.5 {
			t.Errorf("%q scored %f, not above threshold", kw.Text, kw.Score)
		}
	}
}

func TestExtractRespectsMaxKeywords(t *testing.T) {
	r := newRanker(t, sampleProvider())
	got, err := r.Extract(context.Background(), sampleText, false, -1, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Text != "модель" {
		t.Errorf("Extract = %v, want [модель]", got)
	}
}

func TestExtractSkipsFailedCandidates(t *testing.T) {
	p := sampleProvider()
	p.fail = map[string]bool{"модель": true}
	r := newRanker(t, p)

	got, err := r.Extract(context.Background(), sampleText, false, 0.5, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Text != "данные" {
		t.Errorf("Extract = %v, want [данные]", got)
	}
}

func TestExtractAllCandidatesFail(t *testing.T) {
	p := sampleProvider()
	p.fail = map[string]bool{"модель": true, "данные": true, "сеть": true}
	r := newRanker(t, p)

	got, err := r.Extract(context.Background(), sampleText, false, 0.5, 10)
	if !errors.Is(err, internalerr.ErrNoKeywords) {
		t.Errorf("err = %v, want ErrNoKeywords", err)
	}
	if len(got) != 0 {
		t.Errorf("Extract = %v, want empty", got)
	}
}

func TestExtractDocumentEmbeddingFails(t *testing.T) {
	p := sampleProvider()
	p.docVec = nil
	r := newRanker(t, p)

	got, err := r.Extract(context.Background(), sampleText, false, 0.5, 10)
	if !errors.Is(err, internalerr.ErrNoKeywords) || len(got) != 0 {
		t.Errorf("Extract = %v, %v; want empty and ErrNoKeywords", got, err)
	}
}

func TestExtractNoCandidates(t *testing.T) {
	r := newRanker(t, sampleProvider())
	got, err := r.Extract(context.Background(), "один раз", false, 0.5, 10)
	if !errors.Is(err, internalerr.ErrNoKeywords) || len(got) != 0 {
		t.Errorf("Extract = %v, %v; want empty and ErrNoKeywords", got, err)
	}
}

func TestExtractSkipsFailedChunks(t *testing.T) {
	p := sampleProvider()
	p.fail = map[string]bool{"сеть сеть": true}
	r := newRanker(t, p, WithChunker(ingest.Chunker{ChunkWords: 2}))

	got, err := r.Extract(context.Background(), sampleText, false, 0.5, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 || got[0].Text != "модель" {
		t.Errorf("Extract = %v, want [модель данные]", got)
	}
}

func TestExtractMaxCandidates(t *testing.T) {
	r := newRanker(t, sampleProvider(), WithMaxCandidates(1))
	got, err := r.Extract(context.Background(), sampleText, false, -1, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("only one candidate should be embedded, got %v", got)
	}
}

func TestExtractCancelled(t *testing.T) {
	r := newRanker(t, embed.NewHashing(32))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := r.Extract(ctx, sampleText, false, 0, 10)
	if !errors.Is(err, internalerr.ErrNoKeywords) || len(got) != 0 {
		t.Errorf("Extract = %v, %v; want empty and ErrNoKeywords", got, err)
	}
}

func TestNewRequiresProvider(t *testing.T) {
	if _, err := New(newPipeline(), nil); !errors.Is(err, internalerr.ErrResourceUnavailable) {
		t.Errorf("err = %v, want ErrResourceUnavailable", err)
	}
	if _, err := New(nil, embed.NewHashing(8)); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestFilterAndRank(t *testing.T) {
	candidates := []string{"a", "b", "c", "d", "e"}
	scores := []float64{0.5, 0.9, 0.475, 0.7, 0.9}

	got := FilterAndRank(candidates, scores, 0.475, 10)
	want := []string{"b", "e", "d", "a"}
	if texts := Texts(got); strings.Join(texts, ",") != strings.Join(want, ",") {
		t.Errorf("FilterAndRank = %v, want %v", texts, want)
	}

	got = FilterAndRank(candidates, scores, 0.475, 2)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	for _, kw := range got {
		if kw.Score <= 0.475 {
			t.Errorf("%q scored %f, not above threshold", kw.Text, kw.Score)
		}
	}
}

func TestFilterAndRankEdgeCases(t *testing.T) {
	if got := FilterAndRank(nil, nil, 0, 10); len(got) != 0 {
		t.Errorf("empty input should give empty output, got %v", got)
	}
	if got := FilterAndRank([]string{"a"}, []float64{0.9}, 0, 0); len(got) != 0 {
		t.Errorf("maxKeywords 0 should give empty output, got %v", got)
	}
	got := FilterAndRank([]string{"a", "a", "b"}, []float64{0.9, 0.8, 0.7}, 0, 10)
	if strings.Join(Texts(got), ",") != "a,b" {
		t.Errorf("repeats should be dropped, got %v", got)
	}
}
