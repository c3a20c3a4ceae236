package style

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeFormality(t *testing.T) {
	p := NewProfile()
	p.Analyze("Could you please help with my roses")
	assert.Equal(t, FormalityFormal, p.Formality)

	p.Analyze("yeah cool")
	assert.Equal(t, FormalityCasual, p.Formality)

	p.Analyze("roses")
	assert.Equal(t, FormalityCasual, p.Formality, "no cue keeps the last value")
}

func TestAnalyzeVocabularyRing(t *testing.T) {
	p := NewProfile()
	p.Analyze("that this have with from tiny garden")
	assert.Equal(t, []string{"garden"}, p.Vocabulary)

	for i := 0; i < 30; i++ {
		p.Analyze("tomato carrot")
	}
	assert.Len(t, p.Vocabulary, VocabularyCap)
	assert.Equal(t, "carrot", p.Vocabulary[len(p.Vocabulary)-1])
}

func TestAnalyzeSentenceLength(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Short one.", LengthShort},
		{"This sentence is comfortably somewhere between thirty and eighty chars.", LengthMedium},
		{strings.Repeat("long ", 20) + "sentence without any break at all", LengthLong},
		{"", LengthShort},
	}
	for _, tt := range tests {
		p := NewProfile()
		p.Analyze(tt.msg)
		assert.Equal(t, tt.want, p.SentenceLength, tt.msg)
	}
}

func TestAnalyzeFlags(t *testing.T) {
	p := NewProfile()
	p.Analyze("Hey, I dunno about nitrogen 🌱")
	assert.True(t, p.UsesSlang)
	assert.True(t, p.UsesEmojis)
	assert.Equal(t, TechnicalAdvanced, p.TechnicalLevel)
	assert.Equal(t, "hey", p.PreferredGreeting)

	p.Analyze("what colour fertiliser")
	assert.Equal(t, RegionUK, p.Region)
	p.Analyze("which fertilizer in the fall season")
	assert.Equal(t, RegionUS, p.Region)
}

func TestAdaptCasualContractions(t *testing.T) {
	p := NewProfile()
	p.Formality = FormalityCasual
	assert.Equal(t, "I'd not be able to do that", Adapt("I would not be able to do that", p))
}

func TestAdaptFormalExpansions(t *testing.T) {
	p := NewProfile()
	p.Formality = FormalityFormal
	assert.Equal(t, "You cannot rush it. It is fine, do not worry",
		Adapt("You can't rush it. It's fine, don't worry", p))
}

func TestAdaptShortSentences(t *testing.T) {
	p := NewProfile()
	p.SentenceLength = LengthShort
	assert.Equal(t, "Water deeply. mulch well", Adapt("Water deeply, and mulch well", p))
}

func TestAdaptEmojiCap(t *testing.T) {
	p := NewProfile()
	assert.Equal(t, "🌱 a 🍅 b  c", Adapt("🌱 a 🍅 b 🥕 c", p))

	p.UsesEmojis = true
	assert.Equal(t, "🌱 a 🍅 b 🥕 c", Adapt("🌱 a 🍅 b 🥕 c", p))
}

func TestAdaptVocabularyMirroring(t *testing.T) {
	p := NewProfile()
	p.Vocabulary = []string{"veggies", "water", "watered", "waters", "watering", "a1", "a2", "a3", "a4", "a5", "a6"}
	got := Adapt("Vegetables like irrigation", p)
	assert.Equal(t, "veggies like watering", got)

	p.Vocabulary = p.Vocabulary[:10]
	assert.Equal(t, "Vegetables like irrigation", Adapt("Vegetables like irrigation", p))
}

func TestAdaptSlangAndTechnical(t *testing.T) {
	p := NewProfile()
	p.UsesSlang = true
	assert.Equal(t, "I'm gonna explain how plants make food from sunlight",
		Adapt("I'm going to explain photosynthesis", p))

	p.TechnicalLevel = TechnicalAdvanced
	assert.Equal(t, "add nitrogen", Adapt("add nitrogen", p))
}

func TestAdaptRegionalUK(t *testing.T) {
	p := NewProfile()
	p.Region = RegionUK
	assert.Equal(t, "courgette colour in autumn, not aubergine fertiliser or fallen",
		Adapt("zucchini color in fall, not eggplant fertilizer or fallen", p))

	p.Region = RegionUS
	assert.Equal(t, "zucchini color", Adapt("zucchini color", p))
}

func TestStyleKey(t *testing.T) {
	p := NewProfile()
	assert.Equal(t, FormalityCasual, p.StyleKey())
	p.Formality = FormalityFormal
	assert.Equal(t, FormalityFormal, p.StyleKey())
}
