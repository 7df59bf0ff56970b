package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"html"
	"io"
	"path"
	"regexp"
	"strings"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/render"
)

const wordBody = "word/document.xml"

var (
	// splitPlaceholderRe finds placeholders broken across runs, e.g.
	// {cliente.</w:t></w:r><w:r><w:t>primer_nombre}
	splitPlaceholderRe = regexp.MustCompile(`(?:\$(?:<[^<>]+>)*)?\{(?:[A-Za-z0-9_.\-\s]|<[^<>]+>)*?\}`)
	tagRe              = regexp.MustCompile(`<[^<>]+>`)
	xmlEscaper         = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// collapseSplitPlaceholders removes markup inside placeholders so each one is a
// contiguous run of text. Word splits typed text into runs arbitrarily.
func collapseSplitPlaceholders(markup string) string {
	return splitPlaceholderRe.ReplaceAllStringFunc(markup, func(match string) string {
		if !strings.Contains(match, "<") {
			return match
		}
		return tagRe.ReplaceAllString(match, "")
	})
}

func isDocxArchive(content []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == wordBody {
			return true
		}
	}
	return false
}

// isMergeablePart selects the word XML parts that carry visible text
func isMergeablePart(name string) bool {
	if !strings.HasPrefix(name, "word/") || path.Ext(name) != ".xml" {
		return false
	}
	base := path.Base(name)
	return base == "document.xml" ||
		strings.HasPrefix(base, "header") ||
		strings.HasPrefix(base, "footer") ||
		base == "footnotes.xml" ||
		base == "endnotes.xml"
}

// MergeDocx substitutes single brace placeholders in every text part of a
// .docx and returns the new archive
func MergeDocx(content []byte, fields map[string]any) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The document template is not a valid .docx file").
			Mark(ierr.ErrConfiguration)
	}

	renderer := render.NewRenderer(render.SingleBrace, render.WithEscaper(escapeXML))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}

		if isMergeablePart(f.Name) {
			data = []byte(renderer.Render(collapseSplitPlaceholders(string(data)), fields))
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, ierr.WithError(err).WithHint("Could not build the merged document").Mark(ierr.ErrSystem)
		}
		if _, err := w.Write(data); err != nil {
			return nil, ierr.WithError(err).WithHint("Could not build the merged document").Mark(ierr.ErrSystem)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, ierr.WithError(err).WithHint("Could not build the merged document").Mark(ierr.ErrSystem)
	}
	return buf.Bytes(), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not read %s from the document template", f.Name).
			Mark(ierr.ErrConfiguration)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not read %s from the document template", f.Name).
			Mark(ierr.ErrConfiguration)
	}
	return data, nil
}

// DocxToHTML converts the body of a .docx into simple HTML: paragraphs, bold,
// italic, underline, line breaks, tabs and tables. Text is HTML escaped and
// placeholders survive as plain text.
func DocxToHTML(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("The document template is not a valid .docx file").
			Mark(ierr.ErrConfiguration)
	}

	var body []byte
	for _, f := range zr.File {
		if f.Name == wordBody {
			if body, err = readZipFile(f); err != nil {
				return "", err
			}
			break
		}
	}
	if body == nil {
		return "", ierr.NewError("document template has no word/document.xml").
			WithHint("The document template is not a valid .docx file").
			Mark(ierr.ErrConfiguration)
	}

	return wordXMLToHTML(body)
}

type runStyle struct {
	bold, italic, underline bool
}

func wordXMLToHTML(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		out      strings.Builder
		style    runStyle
		inRunPr  bool
		inText   bool
		runOpen  bool
		paraText strings.Builder
	)

	closeRun := func() {
		if !runOpen {
			return
		}
		if style.underline {
			paraText.WriteString("</u>")
		}
		if style.italic {
			paraText.WriteString("</em>")
		}
		if style.bold {
			paraText.WriteString("</strong>")
		}
		runOpen = false
	}
	openRun := func() {
		if runOpen {
			return
		}
		if style.bold {
			paraText.WriteString("<strong>")
		}
		if style.italic {
			paraText.WriteString("<em>")
		}
		if style.underline {
			paraText.WriteString("<u>")
		}
		runOpen = true
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", ierr.WithError(err).
				WithHint("The document template body is not valid XML").
				Mark(ierr.ErrConfiguration)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				paraText.Reset()
			case "r":
				style = runStyle{}
			case "rPr":
				inRunPr = true
			case "b":
				if inRunPr && !isOff(t) {
					style.bold = true
				}
			case "i":
				if inRunPr && !isOff(t) {
					style.italic = true
				}
			case "u":
				if inRunPr && !isOff(t) {
					style.underline = true
				}
			case "t":
				inText = true
				openRun()
			case "br":
				paraText.WriteString("<br/>")
			case "tab":
				paraText.WriteString("&emsp;")
			case "tbl":
				out.WriteString("<table>")
			case "tr":
				out.WriteString("<tr>")
			case "tc":
				out.WriteString("<td>")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				closeRun()
				out.WriteString("<p>")
				out.WriteString(paraText.String())
				out.WriteString("</p>\n")
				paraText.Reset()
			case "r":
				closeRun()
			case "rPr":
				inRunPr = false
			case "t":
				inText = false
			case "tbl":
				out.WriteString("</table>\n")
			case "tr":
				out.WriteString("</tr>")
			case "tc":
				out.WriteString("</td>")
			}
		case xml.CharData:
			if inText {
				paraText.WriteString(html.EscapeString(string(t)))
			}
		}
	}

	return out.String(), nil
}

// isOff reports toggles such as <w:b w:val="false"/>
func isOff(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "val" {
			switch strings.ToLower(a.Value) {
			case "0", "false", "none":
				return true
			}
		}
	}
	return false
}
