package sentiment

import (
	"strings"
	"unicode"
)

// Lexicon scores text by averaging the polarity of known words. A negation
// within the three preceding words flips and halves a word's polarity; an
// intensifier directly before it scales it up.
type Lexicon struct {
	words        map[string]float64
	negations    map[string]struct{}
	intensifiers map[string]float64
}

func NewLexicon() *Lexicon {
	return &Lexicon{words: reviewWords, negations: negationWords, intensifiers: intensifierWords}
}

func (l *Lexicon) Polarity(text string) float64 {
	tokens := tokenize(text)
	var sum float64
	var n int
	for i, tok := range tokens {
		v, ok := l.words[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if m, ok := l.intensifiers[tokens[i-1]]; ok {
				v *= m
			}
		}
		if l.negated(tokens, i) {
			v *= -0.5
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(sum / float64(n))
}

func (l *Lexicon) negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		if _, ok := l.negations[tokens[j]]; ok {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

var negationWords = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "nothing": {}, "hardly": {}, "without": {},
	"don't": {}, "didn't": {}, "doesn't": {}, "isn't": {}, "wasn't": {}, "weren't": {},
	"won't": {}, "wouldn't": {}, "can't": {}, "couldn't": {}, "aren't": {}, "shouldn't": {},
	"dont": {}, "didnt": {}, "doesnt": {}, "isnt": {}, "wasnt": {}, "cant": {}, "wont": {},
}

var intensifierWords = map[string]float64{
	"very": 1.3, "really": 1.3, "extremely": 1.5, "so": 1.2, "super": 1.3,
	"incredibly": 1.5, "absolutely": 1.4, "totally": 1.3, "truly": 1.3, "highly": 1.3,
	"quite": 1.1, "pretty": 1.1, "most": 1.2,
}

var reviewWords = map[string]float64{
	// positive
	"excellent": 1.0, "outstanding": 0.9, "amazing": 0.8, "awesome": 0.9, "fantastic": 0.8,
	"perfect": 1.0, "wonderful": 1.0, "superb": 0.9, "brilliant": 0.9, "best": 1.0,
	"great": 0.8, "love": 0.6, "loved": 0.7, "lovely": 0.5, "good": 0.7, "nice": 0.6,
	"friendly": 0.4, "helpful": 0.5, "recommend": 0.4, "recommended": 0.4, "happy": 0.8,
	"pleased": 0.5, "satisfied": 0.5, "professional": 0.3, "quick": 0.3, "fast": 0.2,
	"easy": 0.4, "clean": 0.4, "fair": 0.3, "reliable": 0.4, "courteous": 0.4,
	"prompt": 0.3, "polite": 0.4, "delicious": 1.0, "enjoyed": 0.5, "impressed": 0.6,
	"thank": 0.3, "thanks": 0.3, "knowledgeable": 0.4, "smooth": 0.4, "efficient": 0.4,
	"responsive": 0.4, "affordable": 0.3, "fresh": 0.3, "beautiful": 0.85, "glad": 0.5,
	// negative
	"terrible": -1.0, "horrible": -1.0, "awful": -1.0, "worst": -1.0, "disgusting": -1.0,
	"bad": -0.7, "poor": -0.4, "rude": -0.6, "slow": -0.3, "dirty": -0.6, "broken": -0.4,
	"disappointed": -0.75, "disappointing": -0.6, "unhelpful": -0.5, "unprofessional": -0.6,
	"avoid": -0.5, "scam": -0.9, "fraud": -0.9, "waste": -0.5, "wasted": -0.5,
	"overpriced": -0.5, "expensive": -0.3, "late": -0.3, "problem": -0.3,
	"problems": -0.3, "issue": -0.2, "issues": -0.2, "complaint": -0.4, "refund": -0.2,
	"unacceptable": -0.8, "angry": -0.5, "annoyed": -0.4, "frustrating": -0.6,
	"frustrated": -0.6, "hate": -0.8, "hated": -0.8, "cold": -0.3, "incompetent": -0.7,
	"lied": -0.7, "ignored": -0.5, "mediocre": -0.4, "useless": -0.5, "wrong": -0.5,
	"nightmare": -0.8, "sad": -0.5, "ridiculous": -0.5,
}
