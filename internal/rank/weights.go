package rank

import (
	apperrors "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/errors"
)

// defaultWeights maps weight class D..A to its default multiplier.
var defaultWeights = [4]float32{0.1, 0.2, 0.4, 1.0}

// Normalization mask bits. Bits are independent and applied in the order
// listed. The default is no normalization.
const (
	NormNone       = 0
	NormLogLength  = 0x01
	NormLength     = 0x02
	NormExtDist    = 0x04
	NormUniq       = 0x08
	NormLogUniq    = 0x10
	NormRDivRPlus1 = 0x20
)

// DefaultWeights returns a copy of the default weight table.
func DefaultWeights() []float32 {
	w := defaultWeights
	return w[:]
}

// resolveWeights validates a caller-supplied weight array and fills the
// four-element table. A nil array selects the defaults. Negative elements
// fall back to the default for their class; elements above 1.0 are
// rejected.
func resolveWeights(user []float32) ([4]float32, error) {
	if user == nil {
		return defaultWeights, nil
	}
	if len(user) < 4 {
		return defaultWeights, apperrors.ErrWeightsTooShort
	}
	var w [4]float32
	for i := 0; i < 4; i++ {
		v := user[i]
		if v < 0 {
			v = defaultWeights[i]
		}
		if v > 1.0 {
			return defaultWeights, apperrors.ErrWeightOutOfRange
		}
		w[i] = v
	}
	return w, nil
}
