package vector

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// FormatVector renders v as a bracketed comma-separated decimal list, the
// form SQL vector columns accept: [0.1,0.2,0.3].
func FormatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector is the inverse of FormatVector.
func ParseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", s)
	}

	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}

	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// CosineDistance returns 1 - cosine similarity. Zero vectors are maximally
// distant from everything.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// SortByDistance orders results ascending by distance, keeping the relative
// order of ties, and truncates to k.
func SortByDistance(results []Result, k int) []Result {
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// TopK resolves the effective k for a search: DefaultTopK when k <= 0,
// never more than MaxTopK.
func TopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return min(k, MaxTopK)
}
