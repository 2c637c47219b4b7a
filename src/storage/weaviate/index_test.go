package weaviate

import (
	"encoding/json"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func TestClassName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Support", want: "Chatbot_Support"},
		{name: "spaces", in: "Support Bot v2", want: "Chatbot_Support_20_Bot_20_v2"},
		{name: "punctuation", in: "faq-bot.prod", want: "Chatbot_faq_2d_bot_2e_prod"},
		{name: "non ascii", in: "café", want: "Chatbot_caf_e9_"},
		{name: "underscore escaped", in: "hr_bot", want: "Chatbot_hr_5f_bot"},
		{name: "cjk", in: "客服", want: "Chatbot__5ba2__670d_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassName(tt.in); got != tt.want {
				t.Errorf("ClassName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassNameIsDistinct(t *testing.T) {
	pairs := [][2]string{
		{"Sales Bot", "Sales-Bot"},
		{"客服", "助手"},
		{"a.b", "a_b"},
		{"a_2e_b", "a.b"},
		{"x_", "x__"},
	}
	for _, p := range pairs {
		if ClassName(p[0]) == ClassName(p[1]) {
			t.Errorf("ClassName(%q) == ClassName(%q) == %q", p[0], p[1], ClassName(p[0]))
		}
	}
}

func TestParseGetResult(t *testing.T) {
	raw := `{
		"Get": {
			"Chatbot_Support": [
				{
					"content": "Reset your password from the login page.",
					"chunk_index": 3,
					"filename": "faq.md",
					"file_type": "text/markdown",
					"_additional": {"id": "6f0c1c3e-8a37-4c55-9f65-1d1b5e7a0c11", "distance": 0.12}
				},
				{
					"content": "Contact support by email.",
					"chunk_index": 0,
					"filename": "contact.txt",
					"file_type": "text/plain",
					"_additional": {"id": "0b0b4a0e-2d7e-4a59-b1a3-0f9c7cf1a6d2", "distance": 0.3}
				}
			]
		}
	}`

	var data map[string]models.JSONObject
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	results := parseGetResult(data, "Chatbot_Support")
	if len(results) != 2 {
		t.Fatalf("parseGetResult() returned %d results, want 2", len(results))
	}
	if results[0].ID != "6f0c1c3e-8a37-4c55-9f65-1d1b5e7a0c11" || results[0].Distance != 0.12 {
		t.Errorf("first result = %+v", results[0])
	}
	if _, ok := results[0].Properties["_additional"]; ok {
		t.Error("_additional should not be part of the properties")
	}

	chunk := toRetrievedChunk(results[0])
	if chunk.Filename != "faq.md" || chunk.ChunkIndex != 3 || chunk.Type != "text/markdown" {
		t.Errorf("toRetrievedChunk() = %+v", chunk)
	}
	if chunk.Content != "Reset your password from the login page." {
		t.Errorf("content = %q", chunk.Content)
	}
}

func TestParseGetResultMissingClass(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{"Chatbot_Other": []interface{}{}},
	}
	if got := parseGetResult(data, "Chatbot_Support"); got != nil {
		t.Errorf("parseGetResult() = %v, want nil", got)
	}
}
