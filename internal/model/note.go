// Package model はドメインモデルを定義する。
package model

import "time"

// Note は共有メモを表す。
type Note struct {
	ID        string
	Title     string
	Content   string // サニタイズ済み
	Author    string
	Type      string // general, shopping, reminder 等
	Pinned    bool
	Reactions map[string][]string // 絵文字 -> リアクションしたメンバー名の列
	Timestamp time.Time
}

// ToggleReaction は指定メンバーの絵文字リアクションをトグルする。
// 既にリアクション済みなら取り消し、空になった絵文字エントリは削除する。
func (n *Note) ToggleReaction(emoji, author string) {
	if n.Reactions == nil {
		n.Reactions = make(map[string][]string)
	}
	authors := n.Reactions[emoji]
	for i, a := range authors {
		if a == author {
			authors = append(authors[:i], authors[i+1:]...)
			if len(authors) == 0 {
				delete(n.Reactions, emoji)
			} else {
				n.Reactions[emoji] = authors
			}
			return
		}
	}
	n.Reactions[emoji] = append(authors, author)
}
