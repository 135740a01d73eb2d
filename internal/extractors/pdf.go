// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extractors

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// maxPDFPages bounds extraction time for very large manuals. Compliance
// patterns are expected within the body of the document, not hundreds of
// pages in; truncating keeps a corrupt or enormous PDF from stalling a run.
const maxPDFPages = 500

var pdfValidationConf = model.NewDefaultConfiguration()

// extractPDFText extracts plain text from a PDF. Layout is not preserved;
// the output is only used for pattern matching. Any failure yields "".
func extractPDFText(path string) string {
	// Reject structurally broken files up front; ledongthuc/pdf can panic
	// on malformed cross-reference tables.
	if err := api.ValidateFile(path, pdfValidationConf); err != nil {
		return ""
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	pageCount := r.NumPage()
	if pageCount > maxPDFPages {
		pageCount = maxPDFPages
	}

	var pages []string
	for i := 1; i <= pageCount; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page degrades that page only.
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n")
}
