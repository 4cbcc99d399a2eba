package vision

import (
	"math"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/textutil"
)

// hintKeywords maps symptom-report tokens to visual feature labels.
// Tokens are matched after the same tokenization the retriever uses,
// so keys must be lowercase NFC forms of at least three runes.
var hintKeywords = map[string]string{
	"плями":       "плями",
	"плямами":     "плями",
	"водянисті":   "водянисті ураження",
	"наліт":       "наліт",
	"нальотом":    "наліт",
	"гниль":       "гниль",
	"гниє":        "гниль",
	"гниють":      "гниль",
	"пожовтіння":  "пожовтіння",
	"жовтіє":      "пожовтіння",
	"жовтіють":    "пожовтіння",
	"жовте":       "пожовтіння",
	"в'янення":    "в'янення",
	"в'яне":       "в'янення",
	"в'януть":     "в'янення",
	"скручування": "скручування листя",
	"скручуються": "скручування листя",
	"виразки":     "виразки",
	"іржа":        "іржаві пустули",
	"іржаві":      "іржаві пустули",
	"борошнистий": "борошнистий наліт",
	"мозаїка":     "мозаїчний візерунок",
	"мозаїчний":   "мозаїчний візерунок",
}

const hintBase = 0.6

// TextHints derives weak visual features from the symptom text. Each
// matched keyword contributes a saturating score 1-exp(-base*count)
// so repeated mentions raise confidence but never reach 1.
func TextHints(symptoms string) diagnose.VisionFeatures {
	features := make(diagnose.VisionFeatures)
	if symptoms == "" {
		return features
	}
	counts := make(map[string]float64)
	for _, token := range textutil.Tokenize(symptoms) {
		if label, ok := hintKeywords[token]; ok {
			counts[label]++
		}
	}
	for label, count := range counts {
		features[label] = 1 - math.Exp(-hintBase*count)
	}
	return features
}
