package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// bytesPerToken is the fallback ratio used when no encoding is available.
const bytesPerToken = 1.5

// Estimator counts prompt tokens with a BPE encoding, or with a
// byte-length heuristic when the encoding could not be loaded.
type Estimator struct {
	encoding *tiktoken.Tiktoken
}

// New loads the named encoding (e.g. "cl100k_base"). Loading may need to fetch the
// BPE ranks; on failure the estimator degrades to the heuristic instead of failing.
func New(encodingName string, logger *zap.Logger) *Estimator {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		logger.Warn("Token encoding unavailable, using length heuristic",
			zap.String("encoding", encodingName), zap.Error(err))
		return &Estimator{}
	}
	return &Estimator{encoding: enc}
}

// NewHeuristic returns an estimator that never uses an encoding.
func NewHeuristic() *Estimator {
	return &Estimator{}
}

// Exact reports whether counts come from a real encoding.
func (e *Estimator) Exact() bool {
	return e.encoding != nil
}

// Count returns the estimated number of tokens in text.
func (e *Estimator) Count(text string) int {
	if e.encoding != nil {
		return len(e.encoding.Encode(text, nil, nil))
	}
	return int(float64(len(text)) / bytesPerToken)
}
