package style

import (
	"regexp"
	"strings"
)

// Formality levels
const (
	FormalityNeutral = "neutral"
	FormalityFormal  = "formal"
	FormalityCasual  = "casual"
)

// Sentence length buckets
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// Technical levels
const (
	TechnicalBasic    = "basic"
	TechnicalAdvanced = "advanced"
)

// Regions
const (
	RegionUK = "UK"
	RegionUS = "US"
)

// VocabularyCap bounds the vocabulary ring
const VocabularyCap = 50

// Profile is what we have learned about how the user writes.
// Every field except Vocabulary is last-write-wins.
type Profile struct {
	Formality         string   `json:"formality"`
	Vocabulary        []string `json:"vocabulary"`
	SentenceLength    string   `json:"sentence_length"`
	UsesEmojis        bool     `json:"uses_emojis"`
	UsesSlang         bool     `json:"uses_slang"`
	PreferredGreeting string   `json:"preferred_greeting,omitempty"`
	TechnicalLevel    string   `json:"technical_level"`
	Region            string   `json:"region,omitempty"`
}

// NewProfile returns the starting profile for a new session
func NewProfile() Profile {
	return Profile{
		Formality:      FormalityNeutral,
		Vocabulary:     []string{},
		SentenceLength: LengthMedium,
		TechnicalLevel: TechnicalBasic,
	}
}

var (
	formalCues    = regexp.MustCompile(`(?i)please|thank you|would you|could you|appreciate|kindly`)
	casualCues    = regexp.MustCompile(`(?i)hey|yeah|yep|nope|gonna|wanna|cool|awesome`)
	wordPattern   = regexp.MustCompile(`\b\w+\b`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	emojiPattern  = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}\x{2600}-\x{26FF}]`)
	slangCues     = regexp.MustCompile(`(?i)gonna|wanna|kinda|sorta|dunno|ain't|y'all`)
	technicalCues = regexp.MustCompile(`(?i)photosynthesis|nitrogen|ph level|micronutrients|propagation|dormancy|companion planting`)
	greetingCue   = regexp.MustCompile(`(?i)^(hi|hey|hello|yo|sup|howdy)`)
	ukSpelling    = regexp.MustCompile(`(?i)colour|fertiliser|organise|analyse|theatre`)
	usSpelling    = regexp.MustCompile(`(?i)color|fertilizer|organize|analyze|theater|fall season`)
)

var vocabularyStopWords = map[string]bool{"that": true, "this": true, "have": true, "with": true, "from": true}

// Analyze folds one user message into the profile
func (p *Profile) Analyze(message string) {
	switch {
	case formalCues.MatchString(message):
		p.Formality = FormalityFormal
	case casualCues.MatchString(message):
		p.Formality = FormalityCasual
	}

	for _, word := range wordPattern.FindAllString(strings.ToLower(message), -1) {
		if len(word) > 4 && !vocabularyStopWords[word] {
			p.Vocabulary = append(p.Vocabulary, word)
		}
	}
	if over := len(p.Vocabulary) - VocabularyCap; over > 0 {
		p.Vocabulary = append([]string(nil), p.Vocabulary[over:]...)
	}

	p.SentenceLength = sentenceBucket(message)

	if emojiPattern.MatchString(message) {
		p.UsesEmojis = true
	}
	if slangCues.MatchString(message) {
		p.UsesSlang = true
	}
	if technicalCues.MatchString(message) {
		p.TechnicalLevel = TechnicalAdvanced
	}
	if m := greetingCue.FindString(message); m != "" {
		p.PreferredGreeting = strings.ToLower(m)
	}

	switch {
	case ukSpelling.MatchString(message):
		p.Region = RegionUK
	case usSpelling.MatchString(message):
		p.Region = RegionUS
	}
}

// sentenceBucket classifies by average characters per sentence
func sentenceBucket(message string) string {
	count := 0
	for _, s := range sentenceSplit.Split(message, -1) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	avg := float64(len([]rune(message))) / float64(count)
	switch {
	case avg < 30:
		return LengthShort
	case avg > 80:
		return LengthLong
	default:
		return LengthMedium
	}
}

// StyleKey picks the acknowledgement register: formal, otherwise casual
func (p Profile) StyleKey() string {
	if p.Formality == FormalityFormal {
		return FormalityFormal
	}
	return FormalityCasual
}
