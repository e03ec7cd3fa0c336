package dom

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/r2/xmlcore/internal/xmlerr"
)

// Format controls how WriteTo renders a tree to text. The zero value renders compact,
// double-quoted, entity-escaped XML 1.0 with no declaration.
type Format struct {
	Indent           bool
	IndentWidth      int
	IndentLevel      int
	IndentAttributes bool
	CollapseTags     bool
	SuppressComments bool
	EscapeWhiteSpace bool
	EscapeDoubleQuote bool
	HTML             bool
	Version          string // "1.0" or "1.1"; "" behaves as "1.0"
	WrapProlog       bool
	Encoding         string
	Standalone       string
}

var htmlVoidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// WriteTo serializes the subtree rooted at n (a Document or Element) to w using format.
func (n *Node) WriteTo(w io.Writer, format Format) (err error) {
	bw := bufio.NewWriter(w)
	if n.Type == DocumentNode {
		if format.WrapProlog || format.Encoding != "" || format.Standalone != "" {
			writeProlog(bw, format)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err = writeNode(bw, c, format, format.IndentLevel); err != nil {
				return err
			}
			if format.Indent {
				bw.WriteByte('\n')
			}
		}
	} else {
		err = writeNode(bw, n, format, format.IndentLevel)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteToString is a convenience wrapper returning the serialized form as a string.
func (n *Node) WriteToString(format Format) (string, error) {
	var sb strings.Builder
	if err := n.WriteTo(&sb, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeProlog(w *bufio.Writer, f Format) {
	version := f.Version
	if version == "" {
		version = "1.0"
	}
	fmt.Fprintf(w, "<?xml version=\"%s\"", version)
	if f.Encoding != "" {
		fmt.Fprintf(w, " encoding=\"%s\"", f.Encoding)
	}
	if f.Standalone != "" {
		fmt.Fprintf(w, " standalone=\"%s\"", f.Standalone)
	}
	w.WriteString("?>\n")
}

func indentPrefix(f Format, level int) string {
	if !f.Indent {
		return ""
	}
	width := f.IndentWidth
	if width <= 0 {
		width = 2
	}
	return "\n" + strings.Repeat(" ", width*level)
}

func writeNode(w *bufio.Writer, n *Node, f Format, level int) error {
	switch n.Type {
	case TextNode:
		return writeText(w, n.Data, f)
	case CDATANode:
		w.WriteString("<![CDATA[")
		w.WriteString(strings.ReplaceAll(n.Data, "]]>", "]]]]><![CDATA[>"))
		w.WriteString("]]>")
		return nil
	case CommentNode:
		if f.SuppressComments {
			return nil
		}
		w.WriteString(indentPrefix(f, level))
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
		return nil
	case ProcInstNode:
		w.WriteString(indentPrefix(f, level))
		w.WriteString("<?")
		w.WriteString(n.Name.Local)
		if n.Data != "" {
			w.WriteByte(' ')
			w.WriteString(n.Data)
		}
		w.WriteString("?>")
		return nil
	case ElementNode:
		return writeElement(w, n, f, level)
	default:
		return xmlerr.New(xmlerr.InvalidCharacter, "cannot serialize node of type %s", n.Type)
	}
}

func writeElement(w *bufio.Writer, n *Node, f Format, level int) error {
	void := f.HTML && htmlVoidElements[n.Name.Local]
	w.WriteString(indentPrefix(f, level))
	w.WriteByte('<')
	w.WriteString(n.Name.String())

	attrSep := " "
	if f.IndentAttributes && n.Attrs.Len() > 1 {
		attrSep = indentPrefix(f, level+1)
	}
	var writeErr error
	n.Attrs.ForEach(func(a *Node) bool {
		w.WriteString(attrSep)
		w.WriteString(a.Name.String())
		w.WriteString(`="`)
		if err := writeAttrValue(w, a.Data, f); err != nil {
			writeErr = err
			return false
		}
		w.WriteByte('"')
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	if void {
		w.WriteString(">")
		return nil
	}
	if n.FirstChild == nil && f.CollapseTags {
		w.WriteString("/>")
		return nil
	}
	w.WriteByte('>')
	childLevel := level + 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := writeNode(w, c, f, childLevel); err != nil {
			return err
		}
	}
	if n.FirstChild != nil && f.Indent && hasElementChild(n) {
		w.WriteString(indentPrefix(f, level))
	}
	w.WriteString("</")
	w.WriteString(n.Name.String())
	w.WriteByte('>')
	return nil
}

func hasElementChild(n *Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode || c.Type == CommentNode || c.Type == ProcInstNode {
			return true
		}
	}
	return false
}

func writeText(w *bufio.Writer, s string, f Format) error {
	for _, r := range s {
		if err := writeEscapedRune(w, r, f, false); err != nil {
			return err
		}
	}
	return nil
}

func writeAttrValue(w *bufio.Writer, s string, f Format) error {
	for _, r := range s {
		if err := writeEscapedRune(w, r, f, true); err != nil {
			return err
		}
	}
	return nil
}

func writeEscapedRune(w *bufio.Writer, r rune, f Format, inAttr bool) error {
	switch r {
	case '&':
		w.WriteString("&amp;")
		return nil
	case '<':
		w.WriteString("&lt;")
		return nil
	case '>':
		w.WriteString("&gt;")
		return nil
	case '"':
		if inAttr || f.EscapeDoubleQuote {
			w.WriteString("&quot;")
		} else {
			w.WriteRune(r)
		}
		return nil
	case '\t', '\n':
		if f.EscapeWhiteSpace || inAttr {
			fmt.Fprintf(w, "&#x%X;", r)
		} else {
			w.WriteRune(r)
		}
		return nil
	case '\r':
		fmt.Fprintf(w, "&#x%X;", r)
		return nil
	}
	if !isValidXMLChar(r, f.Version) {
		return xmlerr.New(xmlerr.InvalidCharacter, "code point U+%04X is not permitted in XML %s output", r, versionOrDefault(f.Version))
	}
	w.WriteRune(r)
	return nil
}

func versionOrDefault(v string) string {
	if v == "" {
		return "1.0"
	}
	return v
}

func isValidXMLChar(r rune, version string) bool {
	if version == "1.1" {
		switch {
		case r == 0:
			return false
		case r >= 0x1 && r <= 0xD7FF:
			return true
		case r >= 0xE000 && r <= 0xFFFD:
			return true
		case r >= 0x10000 && r <= 0x10FFFF:
			return true
		}
		return false
	}
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
