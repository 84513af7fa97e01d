// 機種名の表記ゆれを吸収するための正規化関数群です。
// いずれも純粋関数で、DBや外部サービスには触れません。
// カタログ側・入力側の両方に必ず同じ関数を適用します (SQL内での
// 文字剥がしは行いません)。
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

// 全角英数字 → 半角英数字の固定コードポイントオフセット
const fullToHalfOffset = 0xFEE0

// 照合の邪魔になる装飾文字。波ダッシュ類・括弧類・ハイフン類。
// 長音「ー」は機種名の一部なので対象外。
var strippedRunes = map[rune]bool{
	'~': true, '〜': true, '～': true,
	'【': true, '】': true, '[': true, ']': true,
	'‐': true, '－': true, 'ｰ': true, '-': true,
}

var (
	// ぱちんこ表記はタイトル中に混ざるため位置を問わず除去する
	pachinkoToken = regexp.MustCompile(`ぱちんこ|パチンコ|ﾊﾟﾁﾝｺ`)
	// スロット系は先頭のみ。先頭1文字 (英数字) が接頭辞の前に付く
	// 表記 (例: "Sパチスロ〜") があるため、その1文字は残す。
	slotPrefix  = regexp.MustCompile(`^(.\b)?(?:パチスロ|ﾊﾟﾁｽﾛ|スロット|ｽﾛｯﾄ)`)
	latinPrefix = regexp.MustCompile(`(?i)^(?:PACHISLOT|SLOT)`)
	// 正式名称中の【甘デジ】等の修飾子。基準名の長さ算出に使う。
	qualifier = regexp.MustCompile(`【[^】]*】`)
)

// NormalizeStage1 は基本正規化です。全角英数字を半角へ寄せ、
// 装飾文字と空白をすべて取り除きます。冪等です。
func NormalizeStage1(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'Ａ' && r <= 'Ｚ') || (r >= 'ａ' && r <= 'ｚ') || (r >= '０' && r <= '９'):
			b.WriteRune(r - fullToHalfOffset)
		case strippedRunes[r] || unicode.IsSpace(r):
			// 除去
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeStage2 は Stage1 に加えてジャンル語
// (ぱちんこ/パチスロ/スロット系とその半角・英字表記) を取り除きます。
func NormalizeStage2(raw string) string {
	s := NormalizeStage1(raw)
	s = pachinkoToken.ReplaceAllString(s, "")
	s = slotPrefix.ReplaceAllString(s, "$1")
	s = latinPrefix.ReplaceAllString(s, "")
	return s
}

// StrippedLength は正式名称から【...】修飾子を丸ごと除いた文字数です。
// 部分一致が複数候補に当たったとき、この値が最小の行 (= 修飾なしの
// 基準機種) を優先します。
func StrippedLength(canonicalName string) int {
	return len([]rune(qualifier.ReplaceAllString(canonicalName, "")))
}
