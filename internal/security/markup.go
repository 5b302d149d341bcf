// Package security はアプリケーションのセキュリティ機能を提供する。
//
// 食材名・保存方法・レシピのタイトル・説明・手順は平文として受け取った通りに保存される。
// 保存前に書き換えることはせず、マークアップを含む入力は検証エラーとして拒否する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy はすべての要素を除去するポリシー。
// bluemonday.Policyはスレッドセーフで、複数のgoroutineから共有できる。
var strictPolicy = bluemonday.StrictPolicy()

// HTMLのテキストトークンは改行をLFに正規化されるため、比較前に揃える。
var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ContainsMarkup はsがタグやコメントなどHTMLとして解釈される部分を含むかを返す。
//
// StrictPolicyで要素を除去した結果と元の文字列を、エンティティを解決した形で比較する。
// "&"、"<"単体、"&amp;"や"&lt;"のようなエンティティ参照は平文の一部として扱い、
// マークアップとはみなさない。
func ContainsMarkup(s string) bool {
	if s == "" {
		return false
	}
	plain := newlineNormalizer.Replace(s)
	return html.UnescapeString(strictPolicy.Sanitize(plain)) != html.UnescapeString(plain)
}
