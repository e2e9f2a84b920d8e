package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"suomi-feed/internal/domain/entity"
)

// On-disk history shapes:
//
//	v0: [ {...}, ... ]                          bare list, "url" or "link", datetime "published"
//	v1: {"items": [ {...}, ... ]}               wrapped list, date "published"
//	v2: {"version": 2, "revision": N, "items": [...]}
const (
	schemaBareList = 0
	schemaWrapped  = 1
)

var errUnrecognizedShape = errors.New("unrecognized history shape")

// itemRecord is the persisted form of an entity.NewsItem.
type itemRecord struct {
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	URL       string `json:"url,omitempty"`
	Source    string `json:"source"`
	Lang      string `json:"lang"`
	Published string `json:"published"`
	Text      string `json:"text,omitempty"`
}

type document struct {
	Version  int             `json:"version"`
	Revision int64           `json:"revision"`
	Items    json.RawMessage `json:"items"`
}

type outputDocument struct {
	Version  int          `json:"version"`
	Revision int64        `json:"revision"`
	Items    []itemRecord `json:"items"`
}

// decoded is a parsed history file before migration.
type decoded struct {
	version  int
	revision int64
	records  []itemRecord
	dropped  int
}

// decode parses any supported history shape. Individual malformed records
// are dropped and counted; an unreadable top level is an error.
func decode(data []byte) (decoded, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return decoded{}, errUnrecognizedShape
	}

	switch trimmed[0] {
	case '[':
		records, dropped, err := decodeRecords(trimmed)
		if err != nil {
			return decoded{}, err
		}
		return decoded{version: schemaBareList, records: records, dropped: dropped}, nil

	case '{':
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return decoded{}, err
		}
		out := decoded{version: doc.Version, revision: doc.Revision}
		if doc.Version == 0 {
			out.version = schemaWrapped
			out.revision = 0
		}
		items := bytes.TrimSpace(doc.Items)
		if len(items) == 0 || items[0] != '[' {
			// A mapping without a usable items list normalizes to empty.
			return out, nil
		}
		records, dropped, err := decodeRecords(items)
		if err != nil {
			return decoded{}, err
		}
		out.records = records
		out.dropped = dropped
		return out, nil

	default:
		return decoded{}, errUnrecognizedShape
	}
}

func decodeRecords(raw []byte) ([]itemRecord, int, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, 0, err
	}
	records := make([]itemRecord, 0, len(elems))
	dropped := 0
	for _, e := range elems {
		var rec itemRecord
		if err := json.Unmarshal(e, &rec); err != nil {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}

// migrate converts records of any schema version into domain items.
// It maps the legacy "url" field onto Link, reduces datetimes to their date
// and drops records that have no title or no link. A link already seen
// earlier in the file is dropped as well, so the first record wins.
func migrate(records []itemRecord) (items []entity.NewsItem, dropped int) {
	items = make([]entity.NewsItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		link := strings.TrimSpace(rec.Link)
		if link == "" {
			link = strings.TrimSpace(rec.URL)
		}
		title := strings.TrimSpace(rec.Title)
		if title == "" || link == "" {
			dropped++
			continue
		}
		if _, dup := seen[link]; dup {
			dropped++
			continue
		}
		seen[link] = struct{}{}
		items = append(items, entity.NewsItem{
			Title:              title,
			Link:               link,
			Source:             rec.Source,
			Language:           strings.ToLower(rec.Lang),
			Published:          normalizeDate(rec.Published),
			ClassificationText: rec.Text,
		})
	}
	return items, dropped
}

// normalizeDate reduces "2025-03-09T08:15:00" style values to "2025-03-09".
// Values without a leading calendar date are returned unchanged.
func normalizeDate(published string) string {
	published = strings.TrimSpace(published)
	if len(published) <= len(entity.DateLayout) {
		return published
	}
	prefix := published[:len(entity.DateLayout)]
	if _, err := time.Parse(entity.DateLayout, prefix); err != nil {
		return published
	}
	return prefix
}

func encode(h *entity.History, revision int64) ([]byte, error) {
	doc := outputDocument{
		Version:  entity.CurrentHistoryVersion,
		Revision: revision,
		Items:    make([]itemRecord, 0, len(h.Items)),
	}
	for _, it := range h.Items {
		doc.Items = append(doc.Items, itemRecord{
			Title:     it.Title,
			Link:      it.Link,
			Source:    it.Source,
			Lang:      it.Language,
			Published: it.Published,
			Text:      it.ClassificationText,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
