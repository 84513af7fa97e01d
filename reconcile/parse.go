package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"kishu/model"
)

var (
	digitsOnly    = regexp.MustCompile(`^[0-9]+$`)
	qualifierLine = regexp.MustCompile(`【.*】`)
)

// ParseMachineText は「機種名の行の次に台数の行」という貼り付け形式を
// 解析します。【...】だけの見出し行は機種名として扱いません。
func ParseMachineText(text string) []model.MachineSubmissionItem {
	var items []model.MachineSubmissionItem
	previous := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if digitsOnly.MatchString(line) {
			quantity, _ := strconv.Atoi(line)
			if previous != "" {
				items = append(items, model.MachineSubmissionItem{RawName: previous, Quantity: quantity})
			}
		} else if !qualifierLine.MatchString(line) {
			previous = line
		}
	}
	return items
}
