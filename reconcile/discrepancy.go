package reconcile

import (
	"kishu/database"
)

// TotalCheck は総台数突合の結果です。
type TotalCheck struct {
	Matches        bool `json:"matches"`
	StoredTotal    int  `json:"storedTotal"`
	SubmittedTotal int  `json:"submittedTotal"`
}

// CheckTotal は申請分の合計台数と確定済み総台数を比べます。
// 台数は離散値なので、1台でも違えばオペレーター確認の対象です。
func CheckTotal(dbtx database.DBTX, competitorID, categoryID int64, submittedTotal int) (TotalCheck, error) {
	stored, err := database.GetAggregateTotal(dbtx, competitorID, categoryID)
	if err != nil {
		return TotalCheck{}, err
	}
	return TotalCheck{
		Matches:        stored == submittedTotal,
		StoredTotal:    stored,
		SubmittedTotal: submittedTotal,
	}, nil
}
