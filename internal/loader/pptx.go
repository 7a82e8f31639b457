package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// loadPPTX pulls the text runs (DrawingML <a:t> elements) out of each
// slide, one segment per slide with the slide number as page metadata.
// The presentation package of unioffice exposes no text-extraction surface,
// so this reads the slide XML from the package zip directly.
func loadPPTX(content []byte) ([]entity.Segment, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse pptx: %w", err)
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{num: num, file: f})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("parse pptx: no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var segments []entity.Segment
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			return nil, fmt.Errorf("open slide %d: %w", slide.num, err)
		}
		text, err := extractDrawingText(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse slide %d: %w", slide.num, err)
		}
		segments = append(segments, entity.Segment{
			Text: text,
			Page: slide.num,
		})
	}

	return segments, nil
}

// extractDrawingText concatenates the character data of every <a:t>
// element, separating runs with spaces and paragraphs with newlines.
func extractDrawingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
				sb.WriteString(" ")
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
