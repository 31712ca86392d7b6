package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxOpaqueLen bounds the text carried by an opaque reply, in runes.
const MaxOpaqueLen = 800

type ReplyKind string

const (
	// ReplyKindReply is a payload carrying a "reply" member.
	ReplyKindReply ReplyKind = "reply"
	// ReplyKindText is a payload carrying a "text" member.
	ReplyKindText ReplyKind = "text"
	// ReplyKindOpaque is any other JSON value.
	ReplyKindOpaque ReplyKind = "opaque"
)

// ErrMalformedReply is returned by ParseReply for output that is not JSON.
var ErrMalformedReply = errors.New("malformed reply")

// Reply is the structured result of one agent invocation. Text holds the
// human readable part; Payload keeps the full value as returned.
type Reply struct {
	Kind    ReplyKind       `json:"kind"`
	Text    string          `json:"text"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var replyFields = []struct {
	name string
	kind ReplyKind
}{
	{"reply", ReplyKindReply},
	{"text", ReplyKindText},
}

// ParseReply classifies a raw backend payload. The first present member of
// "reply" then "text" wins; anything else becomes an opaque reply whose text
// is the compact payload truncated to MaxOpaqueLen runes.
func ParseReply(raw []byte) (Reply, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return Reply{}, fmt.Errorf("%w: output is not JSON", ErrMalformedReply)
	}
	compact := &bytes.Buffer{}
	if err := json.Compact(compact, raw); err != nil {
		return Reply{}, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	payload := json.RawMessage(compact.Bytes())

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err == nil {
		for _, f := range replyFields {
			v, ok := obj[f.name]
			if !ok || string(v) == "null" {
				continue
			}
			return Reply{Kind: f.kind, Text: fieldText(v), Payload: payload}, nil
		}
	}
	return Reply{
		Kind:    ReplyKindOpaque,
		Text:    Truncate(string(payload), MaxOpaqueLen),
		Payload: payload,
	}, nil
}

// A string member is used as is, any other value in its compact form.
func fieldText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// TextReply wraps plain text into a reply as if the backend had returned
// {"text": s}.
func TextReply(s string) Reply {
	payload, _ := json.Marshal(map[string]string{"text": s})
	return Reply{Kind: ReplyKindText, Text: s, Payload: payload}
}

func (r Reply) Clone() Reply {
	c := r
	c.Payload = bytes.Clone(r.Payload)
	return c
}

type replyAlias Reply

// UnmarshalJSON accepts both the tagged form and a raw backend payload as
// written by older versions, which is reclassified through ParseReply.
func (r *Reply) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind ReplyKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err == nil {
		switch probe.Kind {
		case ReplyKindReply, ReplyKindText, ReplyKindOpaque:
			var a replyAlias
			if err := json.Unmarshal(data, &a); err != nil {
				return err
			}
			if len(a.Payload) > 0 {
				compact := &bytes.Buffer{}
				if err := json.Compact(compact, a.Payload); err != nil {
					return err
				}
				a.Payload = compact.Bytes()
			}
			*r = Reply(a)
			return nil
		}
	}
	parsed, err := ParseReply(data)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
