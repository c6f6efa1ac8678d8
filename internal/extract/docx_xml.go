package extract

import (
	"encoding/xml"
	"io"
	"strings"
)

// flattenDocumentXML turns WordprocessingML into plain text. Every paragraph
// start emits a blank-line separator, tabs and breaks map to their characters.
func flattenDocumentXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		buf    strings.Builder
		inText bool
		inTabs int
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabs++
			case "tab":
				// w:tabs holds tab stop definitions, not content.
				if inTabs == 0 {
					buf.WriteString("\t")
				}
			case "br", "cr":
				buf.WriteString("\n")
			case "p":
				buf.WriteString("\n\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs--
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
