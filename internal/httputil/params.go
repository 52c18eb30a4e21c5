package httputil

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dstuartbryant/spacewego/internal/astroerr"
)

// ErrMissing reports an absent or empty query parameter.
var ErrMissing = errors.New("missing parameter")

// FloatParam parses a required finite float query parameter. An absent
// key yields an error wrapping ErrMissing; a malformed value yields a
// DomainError.
func FloatParam(q url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%s: %w", name, ErrMissing)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, astroerr.Domain("query", name, raw, "must be a finite number")
	}
	return v, nil
}

// OptionalFloat is FloatParam with a default for absent keys.
func OptionalFloat(q url.Values, name string, def float64) (float64, error) {
	v, err := FloatParam(q, name)
	if errors.Is(err, ErrMissing) {
		return def, nil
	}
	return v, err
}
