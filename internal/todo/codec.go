package todo

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"
)

// CreatedLayout is the form Create stamps into Task.Created.
const CreatedLayout = "2006-01-02T15:04:05"

type document struct {
	Tasks  []record `json:"tasks"`
	NextID int      `json:"next_id"`
}

type record struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Done     bool   `json:"done"`
	Due      string `json:"due"`
	Priority int    `json:"priority"`
	Created  string `json:"created"`
}

// EncodeDocument renders tasks and nextID as the persisted JSON document.
func EncodeDocument(tasks []Task, nextID int) ([]byte, error) {
	doc := document{Tasks: make([]record, 0, len(tasks)), NextID: nextID}
	for _, t := range tasks {
		r := record{
			ID:       t.ID,
			Title:    t.Title,
			Done:     t.Done,
			Priority: int(t.Priority),
			Created:  t.Created,
		}
		if t.HasDue() {
			r.Due = t.Due.String()
		}
		doc.Tasks = append(doc.Tasks, r)
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

// FormatCreated renders a creation timestamp at second precision.
func FormatCreated(ts time.Time) string {
	return ts.Format(CreatedLayout)
}

// decodeDocument parses data leniently. Records that cannot be coerced into a valid
// Task are dropped; a document that is not JSON at all yields ok == false.
func decodeDocument(data []byte, now time.Time, log *zap.Logger) (tasks []Task, nextID int, ok bool) {
	var raw struct {
		Tasks  []json.RawMessage `json:"tasks"`
		NextID json.RawMessage   `json:"next_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("task document unreadable, starting empty", zap.Error(err))
		return nil, 1, false
	}

	seen := make(map[int]bool, len(raw.Tasks))
	maxID := 0
	for i, msg := range raw.Tasks {
		t, reason := decodeRecord(msg, now)
		if reason == "" && seen[t.ID] {
			reason = "duplicate id"
		}
		if reason != "" {
			log.Warn("dropping task record", zap.Int("index", i), zap.String("reason", reason))
			continue
		}
		seen[t.ID] = true
		maxID = max(maxID, t.ID)
		tasks = append(tasks, t)
	}

	nextID = 1
	if len(raw.NextID) > 0 {
		if n, ok := coerceInt(decodeValue(raw.NextID)); ok {
			nextID = n
		} else {
			log.Warn("ignoring invalid next_id", zap.ByteString("next_id", raw.NextID))
		}
	}
	if nextID <= maxID {
		log.Warn("next_id behind stored ids, advancing", zap.Int("next_id", nextID), zap.Int("max_id", maxID))
		nextID = maxID + 1
	}
	return tasks, max(nextID, 1), true
}

func decodeRecord(msg json.RawMessage, now time.Time) (Task, string) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return Task{}, "not an object"
	}

	id, ok := coerceInt(fields["id"])
	if !ok || id <= 0 {
		return Task{}, "invalid id"
	}

	title := strings.TrimSpace(coerceString(fields["title"]))
	if title == "" {
		return Task{}, "empty title"
	}

	t := Task{
		ID:       id,
		Title:    title,
		Done:     coerceBool(fields["done"]),
		Priority: PriorityMedium,
	}
	if s, ok := fields["due"].(string); ok && s != "" {
		if d, err := civil.ParseDate(s); err == nil {
			t.Due = d
		}
	}
	if v, present := fields["priority"]; present {
		if p, ok := coerceInt(v); ok {
			t.Priority = ClampPriority(p)
		}
	}
	t.Created = parseCreated(fields["created"], now)
	return t, ""
}

// parseCreated keeps a stored creation timestamp as written. Only a missing or
// empty value is replaced, by now.
func parseCreated(v any, now time.Time) string {
	if s := coerceString(v); s != "" {
		return s
	}
	return FormatCreated(now)
}

func decodeValue(msg json.RawMessage) any {
	var v any
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func coerceInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		f, err := x.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return false
}

func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	}
	return ""
}
