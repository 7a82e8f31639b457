package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"golang.org/x/net/html"
)

// EPUB is a zip package: META-INF/container.xml points at an OPF manifest
// whose spine lists the reading order of XHTML chapters.

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []struct {
		ID   string `xml:"id,attr"`
		Href string `xml:"href,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

func loadEPUB(content []byte) ([]entity.Segment, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse epub: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var container epubContainer
	if err := readXML(files, "META-INF/container.xml", &container); err != nil {
		return nil, fmt.Errorf("parse epub container: %w", err)
	}
	if len(container.Rootfiles) == 0 {
		return nil, fmt.Errorf("parse epub: no rootfile declared")
	}

	opfPath := container.Rootfiles[0].FullPath
	var pkg epubPackage
	if err := readXML(files, opfPath, &pkg); err != nil {
		return nil, fmt.Errorf("parse epub manifest: %w", err)
	}

	hrefByID := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefByID[item.ID] = item.Href
	}

	opfDir := path.Dir(opfPath)
	var segments []entity.Segment
	for i, itemref := range pkg.Spine {
		href, ok := hrefByID[itemref.IDRef]
		if !ok {
			continue
		}
		chapterPath := path.Clean(path.Join(opfDir, href))
		f, ok := files[chapterPath]
		if !ok {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open chapter %s: %w", href, err)
		}
		doc, err := html.Parse(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse chapter %s: %w", href, err)
		}

		segments = append(segments, entity.Segment{
			Text:    htmlText(doc),
			Page:    i + 1,
			Section: href,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("parse epub: empty spine")
	}

	return segments, nil
}

func readXML(files map[string]*zip.File, name string, out any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(out)
}

// htmlText walks the node tree collecting text, skipping script/style and
// inserting newlines after block elements.
func htmlText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br":
				sb.WriteString("\n")
			}
		}
	}
	walk(n)
	return sb.String()
}
