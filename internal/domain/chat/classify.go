package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordSet binds a topic to the words that select it.
type KeywordSet struct {
	Topic    Topic
	Keywords []string
}

// DefaultKeywordSets is checked in order; the first set with a hit wins.
// Disease comes before crops so "rust on my wheat" is treated as a disease
// question rather than a general crop one. English keywords are stems;
// regular inflections ("rains", "raining", "diseased") match them.
var DefaultKeywordSets = []KeywordSet{
	{
		Topic: TopicDisease,
		Keywords: []string{
			"disease", "pest", "insect", "fungus", "fungal", "blight", "rot", "rotten", "rotting",
			"infect", "infection", "infest", "infestation", "wilt", "aphid", "mildew",
			"rust", "pesticide", "spray", "spot", "spotted", "worm",
			"रोग", "बीमारी", "कीट", "कीड़े",
			"ರೋಗ", "ಕೀಟ",
			"நோய்", "பூச்சி",
			"తెగులు", "పురుగు", "వ్యాధి",
			"कीड",
		},
	},
	{
		Topic: TopicWeather,
		Keywords: []string{
			"weather", "rain", "rainfall", "monsoon", "temperature", "forecast",
			"drought", "humidity", "wind", "storm", "frost", "climate", "hail",
			"मौसम", "बारिश", "वर्षा",
			"ಹವಾಮಾನ", "ಮಳೆ",
			"வானிலை", "மழை",
			"వాతావరణం", "వర్షం",
			"हवामान", "पाऊस",
		},
	},
	{
		Topic: TopicMarket,
		Keywords: []string{
			"market", "price", "rate", "sell", "mandi", "msp", "buyer", "cost", "profit",
			"बाजार", "मंडी", "भाव", "कीमत",
			"ಮಾರುಕಟ್ಟೆ", "ಬೆಲೆ",
			"சந்தை", "விலை",
			"మార్కెట్", "ధర", "ధరలు",
			"किंमत",
		},
	},
	{
		Topic: TopicCrops,
		Keywords: []string{
			"crop", "seed", "seedling", "sow", "sown", "plant", "harvest",
			"fertilizer", "fertiliser", "soil", "irrigate", "irrigation",
			"wheat", "rice", "paddy", "maize", "cotton", "sugarcane", "yield", "farm",
			"फसल", "बीज", "खाद", "मिट्टी", "सिंचाई",
			"ಬೆಳೆ", "ಬೀಜ", "ಗೊಬ್ಬರ",
			"பயிர்", "விதை", "உரம்",
			"పంట", "విత్తనం", "ఎరువు",
			"पीक", "बियाणे", "खत", "खते",
		},
	},
}

// inflections are the English suffixes accepted after a keyword stem.
var inflections = []string{"s", "es", "d", "ed", "ing", "y", "er", "ers"}

// minIndicStem is the shortest non-ASCII keyword, in runes, that matches as
// a word prefix. Shorter ones are too common inside unrelated words.
const minIndicStem = 3

// Classifier files messages under a topic. It is read-only after
// construction and safe for concurrent use.
type Classifier struct {
	sets []compiledSet
}

type compiledSet struct {
	topic  Topic
	words  map[string]struct{}
	stems  []string
	prefix []string
}

// NewClassifier compiles keyword sets. ASCII keywords match a word or its
// regular inflections, case-insensitively. Other keywords match at the
// start of a word, since Indic scripts attach suffixes and postpositions
// to the stem; keywords shorter than minIndicStem runes must match the
// whole word.
func NewClassifier(sets []KeywordSet) *Classifier {
	c := &Classifier{sets: make([]compiledSet, 0, len(sets))}
	for _, set := range sets {
		cs := compiledSet{topic: set.Topic, words: make(map[string]struct{})}
		for _, kw := range set.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			switch {
			case kw == "":
				continue
			case isASCII(kw):
				cs.words[kw] = struct{}{}
				cs.stems = append(cs.stems, kw)
			case utf8.RuneCountInString(kw) < minIndicStem:
				cs.words[kw] = struct{}{}
			default:
				cs.prefix = append(cs.prefix, kw)
			}
		}
		c.sets = append(c.sets, cs)
	}
	return c
}

// DefaultClassifier uses DefaultKeywordSets.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultKeywordSets)
}

// Classify returns the first matching topic, or TopicGeneral.
func (c *Classifier) Classify(message string) Topic {
	// Combining marks are part of the word in Indic scripts.
	tokens := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
	if len(tokens) == 0 {
		return TopicGeneral
	}

	for _, set := range c.sets {
		for _, tok := range tokens {
			if set.matches(tok) {
				return set.topic
			}
		}
	}
	return TopicGeneral
}

func (cs compiledSet) matches(tok string) bool {
	if _, ok := cs.words[tok]; ok {
		return true
	}
	for _, stem := range cs.stems {
		if inflectionOf(tok, stem) {
			return true
		}
	}
	for _, p := range cs.prefix {
		if strings.HasPrefix(tok, p) {
			return true
		}
	}
	return false
}

// inflectionOf reports whether tok is stem plus a regular suffix. A final
// "e" may drop before "-ing" ("irrigate" and "irrigating").
func inflectionOf(tok, stem string) bool {
	rest, ok := strings.CutPrefix(tok, stem)
	if !ok {
		trimmed, hasE := strings.CutSuffix(stem, "e")
		return hasE && tok == trimmed+"ing"
	}
	for _, suffix := range inflections {
		if rest == suffix {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
