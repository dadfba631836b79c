package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/errors"
)

// decodeWeights parses the optional weights field of a rank request. A
// missing or null field selects the built-in defaults. The array must be
// one-dimensional and free of null elements; range checks happen later in
// the ranker itself.
func decodeWeights(raw json.RawMessage) ([]float32, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var elems []*float32
	if err := json.Unmarshal(raw, &elems); err != nil {
		var nested [][]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			return nil, apperrors.New(apperrors.ErrWeightsNotOneDimensional, http.StatusBadRequest, "weights array must be one-dimensional")
		}
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "weights must be an array of numbers")
	}
	weights := make([]float32, len(elems))
	for i, elem := range elems {
		if elem == nil {
			return nil, apperrors.New(apperrors.ErrWeightsNull, http.StatusBadRequest, "weights array must not contain nulls")
		}
		weights[i] = *elem
	}
	return weights, nil
}
