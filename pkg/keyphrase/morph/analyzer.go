package morph

// Tag is a part-of-speech tag. Values follow the OpenCorpora tag names used
// by Russian morphological dictionaries.
type Tag string

const (
	TagUnknown Tag = ""
	TagNoun    Tag = "NOUN"
	TagAdjFull Tag = "ADJF"
	TagAdjShrt Tag = "ADJS"
	TagVerb    Tag = "VERB"
	TagInfn    Tag = "INFN"
	TagAdverb  Tag = "ADVB"
)

// ParseTag maps a configuration string onto a Tag.
func ParseTag(s string) Tag {
	switch Tag(s) {
	case TagNoun, TagAdjFull, TagAdjShrt, TagVerb, TagInfn, TagAdverb:
		return Tag(s)
	}
	return TagUnknown
}

// Analyzer reduces words to dictionary base forms and tags them.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	// Normalize returns the base form of a lowercase word.
	Normalize(word string) string
	// PartOfSpeech returns the tag of a surface word, or TagUnknown.
	PartOfSpeech(word string) Tag
	// Analyze returns the base form of a word together with the tag of the
	// word itself. The result depends only on the word.
	Analyze(word string) (string, Tag)
}

// Identity is the analyzer used when no morphology backend is available.
// Words pass through unchanged and are never tagged.
type Identity struct{}

// Normalize implements Analyzer.
func (Identity) Normalize(word string) string { return word }

// PartOfSpeech implements Analyzer.
func (Identity) PartOfSpeech(string) Tag { return TagUnknown }

// Analyze implements Analyzer.
func (Identity) Analyze(word string) (string, Tag) { return word, TagUnknown }
