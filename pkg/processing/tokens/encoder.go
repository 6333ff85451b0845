package tokens

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	referenceModel    = "gpt-4"
	referenceEncoding = "cl100k_base"
)

// Encoder counts the tokens of a text fragment.
type Encoder interface {
	Count(text string) int
}

var (
	encoderOnce sync.Once
	encoder     Encoder
)

// SharedEncoder returns the process-wide encoder, initializing it on first
// use. Loading prefers the reference model's encoding, then the reference
// encoding by name; if neither is available the degenerate one-token-per-
// character encoder is used so estimation always works.
func SharedEncoder(logger *slog.Logger) Encoder {
	encoderOnce.Do(func() {
		if logger == nil {
			logger = slog.Default()
		}
		if enc, err := tiktoken.EncodingForModel(referenceModel); err == nil {
			encoder = &tiktokenEncoder{enc: enc}
			return
		}
		if enc, err := tiktoken.GetEncoding(referenceEncoding); err == nil {
			logger.Warn("reference model encoding unavailable, using fallback encoding",
				slog.String("encoding", referenceEncoding))
			encoder = &tiktokenEncoder{enc: enc}
			return
		}
		logger.Warn("no sub-word encoding available, falling back to per-character estimation")
		encoder = charEncoder{}
	})
	return encoder
}

type tiktokenEncoder struct {
	enc *tiktoken.Tiktoken
}

func (e *tiktokenEncoder) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.enc.Encode(text, nil, nil))
}

// charEncoder is the degenerate estimator: one token per character.
type charEncoder struct{}

func (charEncoder) Count(text string) int {
	return len([]rune(text))
}
