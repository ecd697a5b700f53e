package codec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/UnknownOlympus/pinboard/internal/codec"
	"github.com/UnknownOlympus/pinboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMarkers() []models.Marker {
	return []models.Marker{
		{ID: "1", Lat: 48.8566, Lng: 2.3522, Title: "Eiffel", Description: "Tower, tall", Icon: "🗼", CreatedAt: 1},
		{ID: "2", Lat: -33.8688, Lng: 151.2093, Title: `Joe"s Pizza`, Description: "line one\nline two", Icon: models.DefaultIcon, CreatedAt: 2},
		{ID: "3", Lat: 0, Lng: -180, Title: "A & B <c> 'd'", Description: "", Icon: "★", CreatedAt: 3},
	}
}

func fieldsOf(markers []models.Marker) []models.Fields {
	out := make([]models.Fields, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.Fields())
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, format := range codec.Formats() {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, codec.Encode(&buf, format, sampleMarkers()))

			got, err := codec.Decode(&buf, format)

			require.NoError(t, err)
			assert.Equal(t, fieldsOf(sampleMarkers()), got)
		})
	}
}

func TestRoundTripLineBreaks(t *testing.T) {
	markers := []models.Marker{
		{Lat: 1, Lng: 2, Title: "line1\r\nline2", Description: "a\rb\tc", Icon: "📍"},
	}

	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatKML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, codec.Encode(&buf, format, markers))

			got, err := codec.Decode(&buf, format)

			require.NoError(t, err)
			assert.Equal(t, fieldsOf(markers), got)
		})
	}

	t.Run("csv folds CRLF inside quoted fields", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, codec.Encode(&buf, codec.FormatCSV, markers))

		got, err := codec.Decode(&buf, codec.FormatCSV)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "line1\nline2", got[0].Title)
		assert.Equal(t, "a\rb\tc", got[0].Description)
	})
}

func TestEncodeKMLRejectsIllegalCharacters(t *testing.T) {
	tests := []struct {
		name   string
		marker models.Marker
	}{
		{name: "bell in title", marker: models.Marker{Title: "ring\a", Icon: "x"}},
		{name: "NUL in description", marker: models.Marker{Title: "t", Description: "a\x00b", Icon: "x"}},
		{name: "invalid UTF-8 icon", marker: models.Marker{Title: "t", Icon: "\xff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := codec.Encode(&buf, codec.FormatKML, []models.Marker{tt.marker})

			require.Error(t, err)
			assert.Contains(t, err.Error(), "marker 1")
			assert.Empty(t, buf.String())
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	markers := []models.Marker{{ID: "x", Lat: 1.5, Lng: 2, Title: "T", Description: "D", Icon: "i", CreatedAt: 99}}

	require.NoError(t, codec.Encode(&buf, codec.FormatJSON, markers))

	assert.JSONEq(t, `[{"lat":1.5,"lng":2,"title":"T","description":"D","icon":"i","createdAt":99}]`, buf.String())
	assert.Contains(t, buf.String(), "\n  {", "output is pretty-printed")
	assert.NotContains(t, buf.String(), `"id"`)
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	markers := []models.Marker{{Lat: 40.5, Lng: -73.25, Title: `Joe"s Pizza`, Description: "", Icon: "🍕"}}

	require.NoError(t, codec.Encode(&buf, codec.FormatCSV, markers))

	assert.Equal(t, "Latitude,Longitude,Title,Description,Icon\n40.5,-73.25,\"Joe\"\"s Pizza\",\"\",🍕\n", buf.String())
}

func TestEncodeKML(t *testing.T) {
	var buf bytes.Buffer
	markers := []models.Marker{{Lat: 10, Lng: 20, Title: "A & B", Description: `say "hi" <now>`, Icon: "x"}}

	require.NoError(t, codec.Encode(&buf, codec.FormatKML, markers))

	out := buf.String()
	assert.Contains(t, out, "<name>A &amp; B</name>")
	assert.NotContains(t, out, "A & B")
	assert.Contains(t, out, "<description>say &quot;hi&quot; &lt;now&gt;</description>")
	assert.Contains(t, out, "<coordinates>20,10,0</coordinates>")
	assert.Contains(t, out, `<kml xmlns="http://www.opengis.net/kml/2.2">`)
}

func TestDecodeJSON(t *testing.T) {
	t.Run("string coordinates are coerced", func(t *testing.T) {
		got, err := codec.Decode(strings.NewReader(`[{"lat":"12.5","lng":" -7 ","title":"t"}]`), codec.FormatJSON)

		require.NoError(t, err)
		assert.Equal(t, []models.Fields{{Lat: 12.5, Lng: -7, Title: "t", Icon: models.DefaultIcon}}, got)
	})

	t.Run("defaults applied", func(t *testing.T) {
		got, err := codec.Decode(strings.NewReader(`[{"lat":1,"lng":2}]`), codec.FormatJSON)

		require.NoError(t, err)
		assert.Equal(t, []models.Fields{{Lat: 1, Lng: 2, Title: "Untitled", Icon: models.DefaultIcon}}, got)
	})

	tests := []struct {
		name   string
		input  string
		record int
	}{
		{name: "not json", input: `{{`, record: 0},
		{name: "not an array", input: `{"lat":1}`, record: 0},
		{name: "missing latitude", input: `[{"lat":1,"lng":2},{"lng":2}]`, record: 2},
		{name: "unparsable longitude", input: `[{"lat":1,"lng":"east"}]`, record: 1},
		{name: "boolean latitude", input: `[{"lat":true,"lng":1}]`, record: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Decode(strings.NewReader(tt.input), codec.FormatJSON)

			var pErr *codec.ParseError
			require.ErrorAs(t, err, &pErr)
			assert.Nil(t, got)
			assert.Equal(t, codec.FormatJSON, pErr.Format)
			assert.Equal(t, tt.record, pErr.Record)
		})
	}
}

func TestDecodeCSV(t *testing.T) {
	t.Run("doubled quotes are unescaped", func(t *testing.T) {
		input := "Latitude,Longitude,Title,Description,Icon\n1,2,\"Joe\"\"s Pizza\",\"\",🍕\n"

		got, err := codec.Decode(strings.NewReader(input), codec.FormatCSV)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, `Joe"s Pizza`, got[0].Title)
		assert.Equal(t, "🍕", got[0].Icon)
	})

	t.Run("no header and short rows", func(t *testing.T) {
		got, err := codec.Decode(strings.NewReader("1,2\n3,4,Named\n"), codec.FormatCSV)

		require.NoError(t, err)
		assert.Equal(t, []models.Fields{
			{Lat: 1, Lng: 2, Title: "Untitled", Icon: models.DefaultIcon},
			{Lat: 3, Lng: 4, Title: "Named", Icon: models.DefaultIcon},
		}, got)
	})

	t.Run("bad coordinate aborts the file", func(t *testing.T) {
		input := "Latitude,Longitude,Title\n1,2,ok\nnorth,2,bad\n"

		got, err := codec.Decode(strings.NewReader(input), codec.FormatCSV)

		var pErr *codec.ParseError
		require.ErrorAs(t, err, &pErr)
		assert.Nil(t, got)
		assert.Equal(t, 3, pErr.Record)
	})

	t.Run("single column row", func(t *testing.T) {
		_, err := codec.Decode(strings.NewReader("1\n"), codec.FormatCSV)

		var pErr *codec.ParseError
		require.ErrorAs(t, err, &pErr)
	})
}

func TestDecodeKML(t *testing.T) {
	t.Run("folders and plain placemarks", func(t *testing.T) {
		input := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><name>Top</name><Point><coordinates> 30.5,50.4,0 </coordinates></Point></Placemark>
    <Folder>
      <Placemark>
        <name>Nested &amp; escaped</name>
        <description><![CDATA[<b>bold</b>]]></description>
        <Point><coordinates>-0.1,51.5</coordinates></Point>
      </Placemark>
    </Folder>
  </Document>
</kml>`

		got, err := codec.Decode(strings.NewReader(input), codec.FormatKML)

		require.NoError(t, err)
		assert.Equal(t, []models.Fields{
			{Lat: 50.4, Lng: 30.5, Title: "Top", Icon: models.DefaultIcon},
			{Lat: 51.5, Lng: -0.1, Title: "Nested & escaped", Description: "<b>bold</b>", Icon: models.DefaultIcon},
		}, got)
	})

	t.Run("placemark without point", func(t *testing.T) {
		input := `<kml><Document><Placemark><name>x</name></Placemark></Document></kml>`

		_, err := codec.Decode(strings.NewReader(input), codec.FormatKML)

		var pErr *codec.ParseError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, 1, pErr.Record)
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := codec.Decode(strings.NewReader(`<kml><Document>`), codec.FormatKML)

		var pErr *codec.ParseError
		require.ErrorAs(t, err, &pErr)
	})
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want codec.Format
	}{
		{path: "markers.json", want: codec.FormatJSON},
		{path: "/tmp/export.CSV", want: codec.FormatCSV},
		{path: "trip.kml", want: codec.FormatKML},
	}
	for _, tt := range tests {
		got, err := codec.FormatFromPath(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := codec.FormatFromPath("markers.gpx")
	var uErr *codec.UnsupportedFormatError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, ".gpx", uErr.Ext)
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	var uErr *codec.UnsupportedFormatError

	require.ErrorAs(t, codec.Encode(&buf, codec.Format("yaml"), nil), &uErr)
	_, err := codec.Decode(&buf, codec.Format("yaml"))
	require.ErrorAs(t, err, &uErr)
}
