package codec

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

const (
	kmlNamespace    = "http://www.opengis.net/kml/2.2"
	kmlDocumentName = "Pinboard markers"
	kmlIconData     = "icon"
	minPointParts   = 2
)

var kmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
	"\r", "&#xD;",
)

var (
	errMissingPoint    = errors.New("placemark has no point coordinates")
	errIllegalXMLChars = errors.New("text contains characters that cannot be represented in XML")
)

type kmlFile struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   *kmlContainer  `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlContainer struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlContainer `xml:"Folder"`
}

type kmlPlacemark struct {
	Name        string    `xml:"name"`
	Description string    `xml:"description"`
	Data        []kmlData `xml:"ExtendedData>Data"`
	Coordinates string    `xml:"Point>coordinates"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

func encodeKML(w io.Writer, markers []models.Marker) error {
	for i, m := range markers {
		for _, text := range []string{m.Title, m.Description, m.Icon} {
			if !isXMLText(text) {
				return fmt.Errorf("marker %d: %w", i+1, errIllegalXMLChars)
			}
		}
	}

	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, xml.Header)
	fmt.Fprintf(bw, "<kml xmlns=%q>\n", kmlNamespace)
	fmt.Fprint(bw, "  <Document>\n")
	fmt.Fprintf(bw, "    <name>%s</name>\n", kmlDocumentName)
	for _, m := range markers {
		fmt.Fprint(bw, "    <Placemark>\n")
		fmt.Fprintf(bw, "      <name>%s</name>\n", kmlEscaper.Replace(m.Title))
		fmt.Fprintf(bw, "      <description>%s</description>\n", kmlEscaper.Replace(m.Description))
		fmt.Fprintf(bw, "      <ExtendedData><Data name=%q><value>%s</value></Data></ExtendedData>\n",
			kmlIconData, kmlEscaper.Replace(m.Icon))
		fmt.Fprintf(bw, "      <Point><coordinates>%s,%s,0</coordinates></Point>\n", formatCoord(m.Lng), formatCoord(m.Lat))
		fmt.Fprint(bw, "    </Placemark>\n")
	}
	fmt.Fprint(bw, "  </Document>\n</kml>\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}

	return nil
}

// isXMLText reports whether s is valid UTF-8 made only of XML 1.0 characters.
func isXMLText(s string) bool {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return false
			}
		}
		if !isXMLChar(r) {
			return false
		}
	}

	return true
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

func decodeKML(r io.Reader) ([]models.Fields, error) {
	var doc kmlFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Format: FormatKML, Err: err}
	}

	placemarks := collectPlacemarks(doc.Placemarks, doc.Folders)
	if doc.Document != nil {
		placemarks = append(placemarks, doc.Document.Placemarks...)
		placemarks = collectPlacemarks(placemarks, doc.Document.Folders)
	}

	fields := make([]models.Fields, 0, len(placemarks))
	for i, pm := range placemarks {
		lat, lng, err := parseKMLPoint(pm.Coordinates)
		if err != nil {
			return nil, &ParseError{Format: FormatKML, Record: i + 1, Err: err}
		}
		fields = append(fields, models.Fields{
			Lat:         lat,
			Lng:         lng,
			Title:       pm.Name,
			Description: pm.Description,
			Icon:        pm.icon(),
		})
	}

	return fields, nil
}

func collectPlacemarks(dst []kmlPlacemark, folders []kmlContainer) []kmlPlacemark {
	for _, f := range folders {
		dst = append(dst, f.Placemarks...)
		dst = collectPlacemarks(dst, f.Folders)
	}

	return dst
}

func (pm kmlPlacemark) icon() string {
	for _, d := range pm.Data {
		if d.Name == kmlIconData {
			return d.Value
		}
	}

	return ""
}

// parseKMLPoint reads the first "lng,lat[,alt]" tuple.
func parseKMLPoint(raw string) (float64, float64, error) {
	tuples := strings.Fields(raw)
	if len(tuples) == 0 {
		return 0, 0, errMissingPoint
	}

	parts := strings.Split(tuples[0], ",")
	if len(parts) < minPointParts {
		return 0, 0, fmt.Errorf("invalid coordinates %q", tuples[0])
	}
	lng, err := parseCoord(parts[0])
	if err != nil {
		return 0, 0, err
	}
	lat, err := parseCoord(parts[1])
	if err != nil {
		return 0, 0, err
	}

	return lat, lng, nil
}
