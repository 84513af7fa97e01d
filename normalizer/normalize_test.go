package normalizer

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStage1(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"全角英数字の半角化", "ＣＲ花火Ｖ３", "CR花火V3"},
		{"波ダッシュ除去", "魔法少女まどか〜マギカ～", "魔法少女まどかマギカ"},
		{"括弧除去", "【甘デジ】海物語[新台]", "甘デジ海物語新台"},
		{"ハイフン類除去", "エヴァ‐15－未来ｰへ-", "エヴァ15未来へ"},
		{"空白除去", "パチスロ 北斗の拳　宿命", "パチスロ北斗の拳宿命"},
		{"長音は保持", "ジャグラー", "ジャグラー"},
		{"空文字", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NormalizeStage1(c.in))
		})
	}
}

func TestNormalizeStage1Idempotent(t *testing.T) {
	inputs := []string{
		"ＣＲぱちんこ 花火【甘デジ】",
		"パチスロ〜交響詩篇エウレカセブン３-HI-EVOLUTION-",
		"Ｐ大工の源さん 超韋駄天",
		"",
	}
	for _, in := range inputs {
		once := NormalizeStage1(in)
		assert.Equal(t, once, NormalizeStage1(once), "input=%q", in)
	}
}

func TestNormalizeStage1StripsAllTargets(t *testing.T) {
	out := NormalizeStage1("~〜～【】[]‐－ｰ- 　\tＡ１あ")
	assert.Equal(t, "A1あ", out)
	for _, r := range out {
		assert.False(t, strippedRunes[r], "stripped rune %q remains", r)
		assert.False(t, unicode.IsSpace(r), "whitespace %q remains", r)
	}
}

func TestNormalizeStage2(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"先頭のパチスロ", "パチスロ花火", "花火"},
		{"先頭1文字を保持", "Ｘパチスロ花火", "X花火"},
		{"半角カナのスロット", "ｽﾛｯﾄｼﾞｬｸﾞﾗｰ", "ｼﾞｬｸﾞﾗｰ"},
		{"英字SLOT", "SLOT魔法少女まどかマギカ", "魔法少女まどかマギカ"},
		{"英字PACHISLOT小文字", "pachislot北斗の拳", "北斗の拳"},
		{"ぱちんこは位置を問わず除去", "CRぱちんこ花火", "CR花火"},
		{"カタカナのパチンコも除去", "パチンコ必殺仕事人", "必殺仕事人"},
		{"途中のスロットは保持", "究極スロット伝説", "究極スロット伝説"},
		{"ジャンル語なし", "海物語", "海物語"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NormalizeStage2(c.in))
		})
	}
}

func TestNormalizeStage2KeepsRemainderIntact(t *testing.T) {
	out := NormalizeStage2("パチスロ 交響詩篇エウレカセブン３")
	assert.Equal(t, "交響詩篇エウレカセブン3", out)
	assert.False(t, strings.HasPrefix(out, "パチスロ"))
}

func TestStrippedLength(t *testing.T) {
	assert.Equal(t, 2, StrippedLength("花火【甘デジ】"))
	assert.Equal(t, 2, StrippedLength("花火"))
	assert.Equal(t, 4, StrippedLength("【新台】海物語４"))
	assert.Equal(t, 0, StrippedLength("【甘デジ】"))
}
