package domain

// RawToken is one OCR-recognized text fragment in document order.
// Confidence is the recognizer's score in [0,1].
type RawToken struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TokenTexts returns the trimmed token texts in document order, skipping
// empties.
func TokenTexts(tokens []RawToken) []string {
	texts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Text != "" {
			texts = append(texts, tok.Text)
		}
	}
	return texts
}

// AverageConfidence is the mean recognizer confidence across tokens, 0 for
// an empty list.
func AverageConfidence(tokens []RawToken) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var total float64
	for _, tok := range tokens {
		total += tok.Confidence
	}
	return total / float64(len(tokens))
}
