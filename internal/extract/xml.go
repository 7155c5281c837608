package extract

import (
	"encoding/xml"
	"io"
	"os"
)

// walkElements streams an XML document and calls visit for every start
// element whose local name matches. The visit callback must consume the
// element via the decoder (DecodeElement) or leave it to be skipped.
//
// encoding/xml never resolves external entities or fetches DTDs, which is the
// defensive-parsing posture required for operator-supplied files; Strict mode
// additionally rejects undefined entities outright.
func walkElements(path, name string, visit func(d *xml.Decoder, start xml.StartElement) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d := xml.NewDecoder(f)
	d.Strict = true
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != name {
			continue
		}
		if err := visit(d, start); err != nil {
			return err
		}
	}
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
