package parser

import (
	"reflect"
	"strconv"
	"strings"
)

// TagPair is one key:"value" entry of a struct tag.
type TagPair struct {
	Key   string
	Value string
}

// ParseTag splits a struct tag into its pairs, preserving order. Malformed
// trailing content is dropped.
func ParseTag(tag reflect.StructTag) []TagPair {
	var out []TagPair

	raw := strings.TrimSpace(string(tag))
	for raw != "" {
		colon := strings.Index(raw, ":")
		if colon <= 0 {
			break
		}
		key := raw[:colon]
		if strings.ContainsAny(key, " \t\"`") {
			break
		}

		quoted, err := strconv.QuotedPrefix(raw[colon+1:])
		if err != nil {
			break
		}
		val, err := strconv.Unquote(quoted)
		if err != nil {
			break
		}
		out = append(out, TagPair{Key: key, Value: val})

		raw = strings.TrimSpace(raw[colon+1+len(quoted):])
	}

	return out
}

// FormatTag renders pairs back into a struct tag.
func FormatTag(pairs []TagPair) reflect.StructTag {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.Key+":"+strconv.Quote(p.Value))
	}
	return reflect.StructTag(strings.Join(parts, " "))
}

// TagList returns the comma or semicolon separated parts of the value stored
// under key, trimmed, without empty entries.
func TagList(tag reflect.StructTag, key string) []string {
	v, ok := tag.Lookup(key)
	if !ok {
		return nil
	}
	return splitTagParts(v)
}

// SetTagList stores values under key, keeping every other pair in place. The
// key is appended when absent.
func SetTagList(tag reflect.StructTag, key string, values []string) reflect.StructTag {
	pairs := ParseTag(tag)
	joined := strings.Join(values, ",")

	for i := range pairs {
		if pairs[i].Key == key {
			pairs[i].Value = joined
			return FormatTag(pairs)
		}
	}

	return FormatTag(append(pairs, TagPair{Key: key, Value: joined}))
}

// TagName returns the name part of an encoding tag such as json:"name,omitempty".
func TagName(tag reflect.StructTag, key string) string {
	v, ok := tag.Lookup(key)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(v, ",")
	return name
}

// splitTagParts splits a tag value on common delimiters.
func splitTagParts(tagVal string) []string {
	if tagVal == "" {
		return nil
	}

	var out []string
	for _, part := range strings.FieldsFunc(tagVal, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// ContainsTagPart reports whether any fragment of the tag value stored under
// key matches expected exactly.
func ContainsTagPart(tag reflect.StructTag, key, expected string) bool {
	for _, part := range TagList(tag, key) {
		if part == expected {
			return true
		}
	}
	return false
}
