package style

import (
	"regexp"
	"strings"
)

// A transform rewrites a reply for a given profile
type transform struct {
	name  string
	apply func(text string, p Profile) string
}

// Transforms run in this order; later ones may re-match earlier output.
var pipeline = []transform{
	{"formality", adaptFormality},
	{"sentence_length", adaptSentenceLength},
	{"emoji", capEmoji},
	{"vocabulary", mirrorVocabulary},
	{"slang", adaptSlang},
	{"technical", simplifyTechnical},
	{"region", applyRegion},
}

// Adapt rewrites reply to match the user's profile
func Adapt(reply string, p Profile) string {
	for _, t := range pipeline {
		reply = t.apply(reply, p)
	}
	return reply
}

type substitution struct {
	pattern *regexp.Regexp
	with    string
}

func sub(pattern, with string) substitution {
	return substitution{regexp.MustCompile(pattern), with}
}

func applyAll(text string, subs []substitution) string {
	for _, s := range subs {
		text = s.pattern.ReplaceAllString(text, s.with)
	}
	return text
}

var casualSubs = []substitution{
	sub(`I would`, "I'd"),
	sub(`You would`, "You'd"),
	sub(`cannot`, "can't"),
	sub(`do not`, "don't"),
	sub(`That is`, "That's"),
	sub(`It is`, "It's"),
}

var formalSubs = []substitution{
	sub(`can't`, "cannot"),
	sub(`don't`, "do not"),
	sub(`won't`, "will not"),
}

var (
	itsPattern   = regexp.MustCompile(`(?i)it's`)
	thatsPattern = regexp.MustCompile(`(?i)that's`)
)

func adaptFormality(text string, p Profile) string {
	switch p.Formality {
	case FormalityCasual:
		return applyAll(text, casualSubs)
	case FormalityFormal:
		text = applyAll(text, formalSubs)
		text = replaceKeepingCase(itsPattern, text, "it is")
		return replaceKeepingCase(thatsPattern, text, "that is")
	}
	return text
}

// replaceKeepingCase swaps matches for with, capitalising it when the match was
func replaceKeepingCase(re *regexp.Regexp, text, with string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		if m != "" && m[0] >= 'A' && m[0] <= 'Z' {
			return strings.ToUpper(with[:1]) + with[1:]
		}
		return with
	})
}

var andClause = regexp.MustCompile(`,\s*and\s*`)

func adaptSentenceLength(text string, p Profile) string {
	if p.SentenceLength == LengthShort {
		return andClause.ReplaceAllString(text, ". ")
	}
	return text
}

// MaxEmoji is how many emoji survive for users who never send any
const MaxEmoji = 2

func capEmoji(text string, p Profile) string {
	if p.UsesEmojis || len(emojiPattern.FindAllStringIndex(text, -1)) <= MaxEmoji {
		return text
	}
	seen := 0
	return emojiPattern.ReplaceAllStringFunc(text, func(m string) string {
		seen++
		if seen <= MaxEmoji {
			return m
		}
		return ""
	})
}

var (
	vegetablePattern  = regexp.MustCompile(`(?i)vegetables?`)
	irrigationPattern = regexp.MustCompile(`(?i)irrigation`)
)

func mirrorVocabulary(text string, p Profile) string {
	if len(p.Vocabulary) <= 10 {
		return text
	}
	unique := make(map[string]bool, len(p.Vocabulary))
	waterWords := 0
	for _, w := range p.Vocabulary {
		if unique[w] {
			continue
		}
		unique[w] = true
		if strings.Contains(w, "water") {
			waterWords++
		}
	}
	if unique["veggie"] || unique["veggies"] {
		text = vegetablePattern.ReplaceAllString(text, "veggies")
	}
	if waterWords > 3 {
		text = irrigationPattern.ReplaceAllString(text, "watering")
	}
	return text
}

var slangSubs = []substitution{
	sub(`going to`, "gonna"),
	sub(`want to`, "wanna"),
	sub(`kind of`, "kinda"),
}

func adaptSlang(text string, p Profile) string {
	if p.UsesSlang {
		return applyAll(text, slangSubs)
	}
	return text
}

var technicalSubs = []substitution{
	sub(`(?i)photosynthesis`, "how plants make food from sunlight"),
	sub(`(?i)nitrogen`, "nutrients"),
	sub(`(?i)propagation`, "growing new plants"),
}

func simplifyTechnical(text string, p Profile) string {
	if p.TechnicalLevel == TechnicalBasic {
		return applyAll(text, technicalSubs)
	}
	return text
}

var ukSubs = []substitution{
	sub(`(?i)color`, "colour"),
	sub(`(?i)fertilizer`, "fertiliser"),
	sub(`(?i)\bfall\b`, "autumn"),
	sub(`(?i)zucchini`, "courgette"),
	sub(`(?i)eggplant`, "aubergine"),
}

func applyRegion(text string, p Profile) string {
	if p.Region == RegionUK {
		return applyAll(text, ukSubs)
	}
	return text
}
