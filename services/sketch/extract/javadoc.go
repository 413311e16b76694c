// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// DocMode selects the documentation attached to each document.
type DocMode string

const (
	// DocModeNone attaches no documentation.
	DocModeNone DocMode = "none"

	// DocModeFull attaches the whole comment text without block tags.
	DocModeFull DocMode = "full"

	// DocModeSummary attaches the first sentence of the comment text.
	DocModeSummary DocMode = "summary"
)

// ParseDocMode converts a configuration string into a DocMode.
func ParseDocMode(s string) (DocMode, error) {
	switch DocMode(s) {
	case DocModeNone, DocModeFull, DocModeSummary:
		return DocMode(s), nil
	}
	return "", fmt.Errorf("unknown doc mode %q", s)
}

var (
	inlineTagPattern = regexp.MustCompile(`\{@(\w+)\s+([^}]*)\}`)
	htmlTagPattern   = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// Documentation renders a raw "/** ... */" comment for the given mode.
// It returns nil when the mode is none or no text remains.
func Documentation(raw string, mode DocMode) *string {
	if mode == DocModeNone || raw == "" {
		return nil
	}

	text := docText(raw)
	if mode == DocModeSummary {
		text = firstSentence(text)
	}
	if text == "" {
		return nil
	}
	return &text
}

// docText strips comment decoration, block tags, inline tags and markup,
// and collapses whitespace.
func docText(raw string) string {
	body := strings.TrimPrefix(strings.TrimSpace(raw), "/**")
	body = strings.TrimSuffix(body, "*/")

	var words []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if strings.HasPrefix(line, "@") {
			break
		}
		words = append(words, strings.Fields(line)...)
	}

	text := strings.Join(words, " ")
	text = inlineTagPattern.ReplaceAllStringFunc(text, inlineTagText)
	text = htmlTagPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// inlineTagText renders one inline tag. Links render as their label when
// one is given, otherwise as the reference.
func inlineTagText(tag string) string {
	m := inlineTagPattern.FindStringSubmatch(tag)
	body := strings.TrimSpace(m[2])
	switch m[1] {
	case "link", "linkplain":
		ref, label, _ := strings.Cut(body, " ")
		if label = strings.TrimSpace(label); label != "" {
			return label
		}
		return ref
	}
	return body
}

// firstSentence returns text up to and including the first period that is
// followed by whitespace or ends the text.
func firstSentence(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		if i == len(text)-1 || text[i+1] == ' ' {
			return text[:i+1]
		}
	}
	return text
}
