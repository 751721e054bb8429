package version

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// release is a parsed release tag such as v1.4.0 or 1.5.0-rc.1.
type release struct {
	parts [3]int
	pre   string
}

func parseRelease(s string) (release, error) {
	var r release

	core, pre, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(s), "v"), "-")
	r.pre = pre

	fields := strings.Split(core, ".")
	if len(fields) < 2 || len(fields) > 3 {
		return r, fmt.Errorf("invalid release tag %q", s)
	}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return r, fmt.Errorf("invalid release tag %q", s)
		}
		r.parts[i] = n
	}
	return r, nil
}

// Compare orders two release tags: 1 if a is newer, -1 if b is newer, 0 if equal.
// A missing patch counts as 0 and a pre-release sorts before its release.
func Compare(a, b string) (int, error) {
	ra, err := parseRelease(a)
	if err != nil {
		return 0, err
	}
	rb, err := parseRelease(b)
	if err != nil {
		return 0, err
	}

	for i := range ra.parts {
		if c := cmp.Compare(ra.parts[i], rb.parts[i]); c != 0 {
			return c, nil
		}
	}

	switch {
	case ra.pre == rb.pre:
		return 0, nil
	case ra.pre == "":
		return 1, nil
	case rb.pre == "":
		return -1, nil
	default:
		return cmp.Compare(ra.pre, rb.pre), nil
	}
}
