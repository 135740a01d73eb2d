// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"archive/zip"
	"io"
	"regexp"
	"strings"
)

// DOCX is a zip archive; the body text lives in word/document.xml. The
// extraction below strips WordprocessingML down to paragraphs and table
// cells, which is enough fidelity for regex matching.
var (
	docxCellBoundary = regexp.MustCompile(`</w:tc>\s*<w:tc[^>]*>`)
	docxCellTags     = regexp.MustCompile(`<w:tc[^>]*>|</w:tc>`)
	docxRowBoundary  = regexp.MustCompile(`</w:tr>\s*<w:tr[^>]*>`)
	docxRowTags      = regexp.MustCompile(`<w:tr[^>]*>|</w:tr>`)
	docxParagraph    = regexp.MustCompile(`<w:p[^>]*>|</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab[^>]*/?>`)
	docxAnyTag       = regexp.MustCompile(`<[^>]*>`)
)

// extractDocxText extracts plain text from a Word document. Any failure
// yields "".
func extractDocxText(path string) string {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return ""
	}
	defer reader.Close()

	var documentFile *zip.File
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}
	if documentFile == nil {
		return ""
	}

	rc, err := documentFile.Open()
	if err != nil {
		return ""
	}
	docContent, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return ""
	}

	return cleanWordXML(string(docContent))
}

// cleanWordXML reduces WordprocessingML to plain text: table cells become
// tabs, rows and paragraphs become line breaks, everything else is stripped.
func cleanWordXML(content string) string {
	content = docxCellBoundary.ReplaceAllString(content, "\t")
	content = docxCellTags.ReplaceAllString(content, "")
	content = docxRowBoundary.ReplaceAllString(content, "\n")
	content = docxRowTags.ReplaceAllString(content, "")
	content = docxParagraph.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = docxAnyTag.ReplaceAllString(content, "")

	content = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&apos;", "'",
	).Replace(content)

	// Drop empty lines left behind by structural tags.
	lines := strings.Split(content, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
