// Package hierarchy implements positional hierarchy code generation: the
// chain formatter, the organization code resolver, the position grouper, the
// recursive chain generator and the engine that orchestrates them.
package hierarchy

import (
	"strconv"
	"strings"
)

// FormatSubcategoryCode renders one chain position for its disambiguation
// level. Levels 0 and 1 use decimal digits, level 2 uses lowercase letters
// ("a".."z", then "aa", "ab", ...) and levels 3 and up use the same scheme
// in uppercase. The letter scheme is base-26 with 1-indexing: there is no
// "zero" letter, so 26 is "z" and 27 is "aa".
func FormatSubcategoryCode(n, level int) string {
	if level < 2 || n < 1 {
		return strconv.Itoa(n)
	}
	return letterCode(n, level >= 3)
}

func letterCode(n int, upper bool) string {
	base := byte('a')
	if upper {
		base = 'A'
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, base+byte(n%26))
		n /= 26
	}
	// Digits were produced least significant first.
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// FormatChain formats each chain segment by its index (= level). Segments
// that are not plain integers pass through unchanged, so partially
// pre-formatted chains survive a second formatting pass.
func FormatChain(chain []string) []string {
	if len(chain) == 0 {
		return nil
	}
	out := make([]string, len(chain))
	for i, seg := range chain {
		if n, err := strconv.Atoi(seg); err == nil {
			out[i] = FormatSubcategoryCode(n, i)
		} else {
			out[i] = seg
		}
	}
	return out
}

// FormatPositions renders an integer subcategory chain into its formatted
// string segments.
func FormatPositions(chain []int) []string {
	if len(chain) == 0 {
		return nil
	}
	parts := make([]string, len(chain))
	for i, n := range chain {
		parts[i] = strconv.Itoa(n)
	}
	return FormatChain(parts)
}

// FunctionCode assembles a function-view hierarchy code:
// segment.category.contentType followed by the formatted chain, which is
// omitted entirely when empty.
func FunctionCode(segment, category, contentType string, chain []string) string {
	return joinCode(segment, category, contentType, chain)
}

// OrganizationCode assembles an organization-view hierarchy code:
// orgCode.category.contentType followed by the formatted chain.
func OrganizationCode(orgCode, category, contentType string, chain []string) string {
	return joinCode(orgCode, category, contentType, chain)
}

func joinCode(base, category, contentType string, chain []string) string {
	parts := make([]string, 0, 3+len(chain))
	parts = append(parts, base, category, contentType)
	parts = append(parts, chain...)
	return strings.Join(parts, ".")
}
