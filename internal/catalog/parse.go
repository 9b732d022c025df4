package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

var errMissing = errors.New("missing")

// Parse decodes an upstream payload. Every record must carry every field;
// the first bad record fails the whole payload.
func Parse(body []byte) (domain.Catalog, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}
	if records == nil {
		return nil, &ParseError{Index: -1, Err: errors.New("body is not a JSON array")}
	}

	movies := make(domain.Catalog, 0, len(records))
	for i, rec := range records {
		m, err := parseRecord(rec)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Index = i
			}
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func parseRecord(rec map[string]json.RawMessage) (domain.Movie, error) {
	if rec == nil {
		return domain.Movie{}, &ParseError{Field: "", Err: errors.New("record is not an object")}
	}

	var (
		m   domain.Movie
		err error
	)
	strField := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = stringField(rec, name)
	}
	strField("id", &m.ID)
	strField("title", &m.Title)
	strField("description", &m.Description)
	strField("link", &m.Link)
	if err != nil {
		return m, err
	}

	if m.Genre, err = genreField(rec); err != nil {
		return m, err
	}
	if m.Image, err = imageField(rec); err != nil {
		return m, err
	}
	if m.Rating, err = ratingField(rec); err != nil {
		return m, err
	}
	if m.Year, err = yearField(rec); err != nil {
		return m, err
	}
	return m, nil
}

func field(rec map[string]json.RawMessage, name string) (json.RawMessage, error) {
	raw, ok := rec[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &ParseError{Field: name, Err: errMissing}
	}
	return raw, nil
}

func stringField(rec map[string]json.RawMessage, name string) (string, error) {
	raw, err := field(rec, name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ParseError{Field: name, Err: errors.New("not a string")}
	}
	return s, nil
}

// genreField accepts the JSON-array-as-text form and a bare array of names,
// which is re-encoded to text so Movie.Genre has one shape.
func genreField(rec map[string]json.RawMessage) (string, error) {
	raw, err := field(rec, "genre")
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return "", &ParseError{Field: "genre", Err: errors.New("not a string or string array")}
	}
	text, err := json.Marshal(names)
	if err != nil {
		return "", &ParseError{Field: "genre", Err: err}
	}
	return string(text), nil
}

// imageField extracts images[0][1]: the first entry is a pair whose second element is the URL.
func imageField(rec map[string]json.RawMessage) (string, error) {
	raw, err := field(rec, "images")
	if err != nil {
		return "", err
	}
	var images [][]string
	if err := json.Unmarshal(raw, &images); err != nil {
		return "", &ParseError{Field: "images", Err: errors.New("not an array of string arrays")}
	}
	if len(images) == 0 || len(images[0]) < 2 {
		return "", &ParseError{Field: "images", Err: errors.New("no images[0][1]")}
	}
	return images[0][1], nil
}

func ratingField(rec map[string]json.RawMessage) (float64, error) {
	raw, err := field(rec, "rating")
	if err != nil {
		return 0, err
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	}
	return 0, &ParseError{Field: "rating", Err: errors.New("not a number")}
}

// yearField accepts a string or a bare integer year.
func yearField(rec map[string]json.RawMessage) (string, error) {
	raw, err := field(rec, "year")
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := n.Int64(); err == nil {
			return n.String(), nil
		}
	}
	return "", &ParseError{Field: "year", Err: fmt.Errorf("not a string: %s", raw)}
}
