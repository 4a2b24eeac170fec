package reader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docxExtractor pulls text out of the word/document.xml entry of a DOCX
// archive: paragraph runs first, then table cells joined with pipes.
type docxExtractor struct{}

type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

func (docxExtractor) Extract(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer archive.Close()

	var doc docxDocument
	found := false
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		if err := xml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		found = true
		break
	}
	if !found {
		return "", fmt.Errorf("no word/document.xml in %s", path)
	}

	var parts []string
	for _, p := range doc.Body.Paragraphs {
		if text := paragraphText(p); text != "" {
			parts = append(parts, text)
		}
	}

	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellParts []string
				for _, p := range cell.Paragraphs {
					if text := paragraphText(p); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if len(cellParts) > 0 {
					cells = append(cells, strings.Join(cellParts, " "))
				}
			}
			if len(cells) > 0 {
				parts = append(parts, strings.Join(cells, " | "))
			}
		}
	}

	return strings.Join(parts, "\n"), nil
}

func paragraphText(p docxParagraph) string {
	var sb strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			sb.WriteString(t)
		}
	}
	return strings.TrimSpace(sb.String())
}
