package document

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	long := strings.Repeat("é", 900)
	tests := []struct {
		name     string
		input    string
		wantKind ReplyKind
		wantText string
	}{
		{
			name:     "reply member",
			input:    `{"reply": "looks good", "text": "ignored"}`,
			wantKind: ReplyKindReply,
			wantText: "looks good",
		},
		{
			name:     "text member",
			input:    `{"text": "fallback text"}`,
			wantKind: ReplyKindText,
			wantText: "fallback text",
		},
		{
			name:     "null reply falls through to text",
			input:    `{"reply": null, "text": "t"}`,
			wantKind: ReplyKindText,
			wantText: "t",
		},
		{
			name:     "non string reply is rendered compact",
			input:    `{"reply": {"a": 1}}`,
			wantKind: ReplyKindReply,
			wantText: `{"a":1}`,
		},
		{
			name:     "opaque object",
			input:    "{\n  \"status\": \"ok\"\n}",
			wantKind: ReplyKindOpaque,
			wantText: `{"status":"ok"}`,
		},
		{
			name:     "opaque array",
			input:    `[1, 2]`,
			wantKind: ReplyKindOpaque,
			wantText: `[1,2]`,
		},
		{
			name:     "skip sentinel survives",
			input:    `{"reply": "  REPLY_SKIP\n"}`,
			wantKind: ReplyKindReply,
			wantText: "  REPLY_SKIP\n",
		},
		{
			name:     "opaque text is capped",
			input:    `{"blob": "` + long + `"}`,
			wantKind: ReplyKindOpaque,
			wantText: Truncate(`{"blob":"`+long+`"}`, MaxOpaqueLen),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseReply([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, r.Kind)
			assert.Equal(t, tt.wantText, r.Text)
			assert.True(t, json.Valid(r.Payload))
		})
	}
}

func TestParseReply_Malformed(t *testing.T) {
	for _, input := range []string{"", "not json", `{"reply": `} {
		_, err := ParseReply([]byte(input))
		assert.True(t, errors.Is(err, ErrMalformedReply), "input %q", input)
	}
}

func TestReply_UnmarshalTagged(t *testing.T) {
	var r Reply
	require.NoError(t, json.Unmarshal([]byte(`{"kind": "opaque", "text": "x", "payload": {"b": [1, 2]}}`), &r))
	assert.Equal(t, Reply{Kind: ReplyKindOpaque, Text: "x", Payload: json.RawMessage(`{"b":[1,2]}`)}, r)
}

func TestTextReply(t *testing.T) {
	r := TextReply("hello")
	assert.Equal(t, ReplyKindText, r.Kind)
	assert.JSONEq(t, `{"text": "hello"}`, string(r.Payload))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 4))
}
