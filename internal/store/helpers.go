package store

import (
	"encoding/json"
	"strings"
)

// maxParams keeps IN lists under SQLite's default host parameter limit.
const maxParams = 900

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

// chunkStrings splits ss into slices of at most n elements.
func chunkStrings(ss []string, n int) [][]string {
	var chunks [][]string
	for len(ss) > n {
		chunks = append(chunks, ss[:n])
		ss = ss[n:]
	}
	if len(ss) > 0 {
		chunks = append(chunks, ss)
	}
	return chunks
}

// marshalStrings converts []string to JSON text for storage.
func marshalStrings(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

// unmarshalStrings converts JSON text back to []string.
func unmarshalStrings(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var ss []string
	_ = json.Unmarshal([]byte(s), &ss)
	return ss
}
