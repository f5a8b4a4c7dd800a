package security

import (
	"strings"
	"testing"
)

// TestSanitizeText_StripsAllTags はHTMLタグがすべて除去されることを検証する。
func TestSanitizeText_StripsAllTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "scriptタグが除去される",
			input: "<script>alert('xss')</script>買い物リスト",
			want:  "買い物リスト",
		},
		{
			name:  "pタグが除去されテキストが残る",
			input: "<p>掃除当番</p>",
			want:  "掃除当番",
		},
		{
			name:  "aタグが除去されテキストが残る",
			input: `<a href="https://evil.example">家賃</a>`,
			want:  "家賃",
		},
		{
			name:  "imgタグ（onerror付き）が除去される",
			input: `<img src=x onerror="alert(1)">ゴミ出し`,
			want:  "ゴミ出し",
		},
		{
			name:  "プレーンテキストはそのまま",
			input: "ミーティングは19時から",
			want:  "ミーティングは19時から",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeText(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_TrimsWhitespace は前後の空白が除去されることを検証する。
func TestSanitizeText_TrimsWhitespace(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.SanitizeText("  メモ  ")
	if got != "メモ" {
		t.Errorf("SanitizeText() = %q, want %q", got, "メモ")
	}
}

// TestSanitizeText_EmptyInput は空入力で空文字列を返すことを検証する。
func TestSanitizeText_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.SanitizeText(""); got != "" {
		t.Errorf("SanitizeText(\"\") = %q, want empty", got)
	}
}

// TestSanitizeText_NoTagInjection はタグ断片が残らないことを検証する。
func TestSanitizeText_NoTagInjection(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.SanitizeText(`<div onclick="steal()"><b>太字</b></div>`)
	if strings.Contains(got, "<") || strings.Contains(got, "onclick") {
		t.Errorf("SanitizeText() = %q, should not contain tags or handlers", got)
	}
}
