// Package security は外部由来コンテンツの無害化を提供する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は利用者入力と外部プロバイダー由来のテキストを無害化する。
// どちらもブラウザにそのまま表示されるため、HTMLタグは一切許可しない。
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はStrictPolicyベースのサニタイザーを生成する。
func NewContentSanitizer() *ContentSanitizer {
	return &ContentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はテキストからHTMLタグを全て除去し、前後の空白を取り除く。
func (s *ContentSanitizer) SanitizeText(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}
