package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kishu/model"
)

func TestParseMachineText(t *testing.T) {
	text := "ＣＲぱちんこ花火\n12\nパチスロ北斗の拳\n8\n"
	items := ParseMachineText(text)
	assert.Equal(t, []model.MachineSubmissionItem{
		{RawName: "ＣＲぱちんこ花火", Quantity: 12},
		{RawName: "パチスロ北斗の拳", Quantity: 8},
	}, items)
}

func TestParseMachineTextSkipsQualifierHeadings(t *testing.T) {
	text := "【新台コーナー】\n海物語\n20\n"
	items := ParseMachineText(text)
	assert.Equal(t, []model.MachineSubmissionItem{
		{RawName: "海物語", Quantity: 20},
	}, items)
}

func TestParseMachineTextIgnoresBlankAndPadding(t *testing.T) {
	text := "\n  海物語  \n\n 4 \n"
	items := ParseMachineText(text)
	assert.Equal(t, []model.MachineSubmissionItem{
		{RawName: "海物語", Quantity: 4},
	}, items)
}

func TestParseMachineTextQuantityWithoutName(t *testing.T) {
	// 先頭にいきなり数値行が来た場合は捨てる。
	items := ParseMachineText("10\n海物語\n4\n")
	assert.Equal(t, []model.MachineSubmissionItem{
		{RawName: "海物語", Quantity: 4},
	}, items)
}
