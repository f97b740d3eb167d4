package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
)

type constScorer float64

func (c constScorer) Score(context.Context, []string, []string) float64 { return float64(c) }

func TestRound(t *testing.T) {
	assert.Equal(t, 0.667, Round(2.0/3.0, 3))
	assert.Equal(t, 0.5, Round(0.5, 3))
	assert.Equal(t, 0.0, Round(0.0004, 3))
}

func TestScoreDocumentsUsesScorer(t *testing.T) {
	docs := []Document{{ID: 1, Keywords: []string{"a"}}, {ID: 2, Keywords: []string{"b"}}}

	hits := ScoreDocuments(context.Background(), docs, []string{"z"}, 0.5, constScorer(0.5))
	assert.Len(t, hits, 2, "threshold is inclusive")
	assert.Equal(t, int64(1), hits[0].ID, "ties keep id order")

	hits = ScoreDocuments(context.Background(), docs, []string{"a"}, 0.1, nil)
	assert.Len(t, hits, 1)

	var _ similarity.Scorer = constScorer(0)
}

func TestCountMatches(t *testing.T) {
	want := map[string]struct{}{"a": {}, "b": {}}
	assert.Equal(t, 2, CountMatches([]string{"a", "a", "b", "c"}, want))
	assert.Equal(t, 0, CountMatches(nil, want))
}

func TestLabelMatches(t *testing.T) {
	assert.True(t, LabelMatches("report.pdf", "report", false))
	assert.False(t, LabelMatches("report.pdf", "Report", false))
	assert.False(t, LabelMatches("report.pdf", "report", true))
	assert.True(t, LabelMatches("report", "report", true))
}

func TestCountKeywordsTieOrder(t *testing.T) {
	stats := CountKeywords([]Document{{Keywords: []string{"b", "a"}}})
	assert.Equal(t, []KeywordCount{{"a", 1}, {"b", 1}}, stats)
}

func TestDocumentCopy(t *testing.T) {
	d := Document{ID: 1, Keywords: []string{"a"}}
	c := d.Copy()
	c.Keywords[0] = "b"
	assert.Equal(t, "a", d.Keywords[0])
}
