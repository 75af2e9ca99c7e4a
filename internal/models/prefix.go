package models

import "strings"

// QuotedPrefix marks the fields of a forwarded post embedded in its parent
const QuotedPrefix = "rt_"

// ExtractPrefixed returns the fields of raw whose key starts with prefix,
// re-keyed without it. raw is not modified.
func ExtractPrefixed(raw Raw, prefix string) Raw {
	out := Raw{}
	for k, v := range raw {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return out
}
