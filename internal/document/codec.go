package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode renders d as indented JSON followed by a newline.
func Encode(d *Document) ([]byte, error) {
	data, err := json.MarshalIndent(d.Clone(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode never fails. Input that is not a JSON object yields an empty
// document, a top-level member that is not an array yields an empty
// sequence, and array elements of the wrong shape are dropped.
func Decode(data []byte) *Document {
	doc := New()
	var top struct {
		Tasks   json.RawMessage `json:"tasks"`
		WarRoom json.RawMessage `json:"warRoom"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return doc
	}
	doc.Tasks = decodeSeq(top.Tasks, normalizeTask)

	var warRoom struct {
		Messages json.RawMessage `json:"messages"`
	}
	if isObject(top.WarRoom) && json.Unmarshal(top.WarRoom, &warRoom) == nil {
		doc.WarRoom.Messages = decodeSeq(warRoom.Messages, func(m *Message) bool {
			return m.ID != ""
		})
	}
	return doc
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func decodeSeq[T any](raw json.RawMessage, keep func(*T) bool) []T {
	out := []T{}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return out
	}
	for _, e := range elems {
		if !isObject(e) {
			continue
		}
		var v T
		if err := json.Unmarshal(e, &v); err != nil {
			continue
		}
		if keep(&v) {
			out = append(out, v)
		}
	}
	return out
}

func normalizeTask(t *Task) bool {
	if t.ID == "" {
		return false
	}
	if t.Logs == nil {
		t.Logs = []LogEntry{}
	}
	return true
}
