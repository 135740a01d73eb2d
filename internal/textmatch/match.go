// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textmatch

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSnippetMargin is the number of characters kept on each side of a
// match when building an evidence snippet.
const DefaultSnippetMargin = 120

// charsPerToken converts a token-based negation window into a character
// window. This is a cheap locality approximation, not a tokenizer.
const charsPerToken = 6

// CompileError reports a regex pattern that failed to compile.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Span is a half-open [Start, End) character offset pair into a document text.
type Span struct {
	Start int
	End   int
}

// CompileAlternation joins a list of regex strings into a single
// case-insensitive alternation. Empty entries are dropped; if nothing
// survives, the result is nil with no error (absence of a constraint).
// The whole alternation is wrapped in one capturing group and compiled
// with `.` matching newlines and multi-line anchors enabled.
func CompileAlternation(patterns []string) (*regexp.Regexp, error) {
	var pats []string
	for _, p := range patterns {
		if p != "" {
			pats = append(pats, p)
		}
	}
	if len(pats) == 0 {
		return nil, nil
	}

	expr := "(?ims)(" + strings.Join(pats, "|") + ")"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &CompileError{Pattern: strings.Join(pats, "|"), Err: err}
	}
	return re, nil
}

// FindAll returns all non-overlapping matches of re in text, left to right.
// A nil pattern or empty text yields no matches.
func FindAll(re *regexp.Regexp, text string) []Span {
	if re == nil || text == "" {
		return nil
	}

	var spans []Span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}

// Snippet returns a short, auditable excerpt of text around [start, end),
// padded by margin characters on each side and clipped to the text bounds.
// Literal backslash-n sequences are collapsed to spaces so snippets stay on
// one report line.
func Snippet(text string, start, end, margin int) string {
	a := start - margin
	if a < 0 {
		a = 0
	}
	b := end + margin
	if b > len(text) {
		b = len(text)
	}
	return strings.TrimSpace(strings.ReplaceAll(text[a:b], `\n`, " "))
}

// CharWindow converts a negation window expressed in tokens into characters.
func CharWindow(tokens int) int {
	if tokens < 0 {
		return 0
	}
	return tokens * charsPerToken
}

// HasNegativeNearby reports whether neg matches anywhere within charWindow
// characters of span, clipped to the text bounds. A nil negative pattern
// never suppresses anything.
func HasNegativeNearby(text string, span Span, neg *regexp.Regexp, charWindow int) bool {
	if neg == nil {
		return false
	}
	a := span.Start - charWindow
	if a < 0 {
		a = 0
	}
	b := span.End + charWindow
	if b > len(text) {
		b = len(text)
	}
	return neg.MatchString(text[a:b])
}
