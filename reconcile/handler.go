package reconcile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kishu/database"
	"kishu/model"
)

type addMachineRequest struct {
	StoreName      string                        `json:"storeName"`
	CompetitorName string                        `json:"competitorName"`
	Category       string                        `json:"category"`
	Machines       []model.MachineSubmissionItem `json:"machines"`
	Text           string                        `json:"text"`
	SkipTotalCheck bool                          `json:"skipTotalCheck"`
}

// AddMachineHandler は競合店の設置機種一括登録です。
// machines が空のときは text (機種名と台数の行ペア) を解析します。
func AddMachineHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POSTメソッドのみ許可されています", http.StatusMethodNotAllowed)
			return
		}
		var req addMachineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "リクエストの形式が不正です", http.StatusBadRequest)
			return
		}
		items := req.Machines
		if len(items) == 0 && req.Text != "" {
			items = ParseMachineText(req.Text)
		}

		submit := wf.SubmitBatch
		if req.SkipTotalCheck {
			submit = wf.ResolveWithoutGate
		}
		result, err := submit(r.Context(), SubmitRequest{
			StoreName:      req.StoreName,
			CompetitorName: req.CompetitorName,
			Category:       req.Category,
			Items:          items,
		})
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, result)
	}
}

type pendingIDRequest struct {
	PendingID string `json:"pendingId"`
}

// ConfirmTotalHandler は総台数差異の承認です。
func ConfirmTotalHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POSTメソッドのみ許可されています", http.StatusMethodNotAllowed)
			return
		}
		var req pendingIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PendingID == "" {
			http.Error(w, "pendingIdを指定してください", http.StatusBadRequest)
			return
		}
		result, err := wf.ConfirmTotal(req.PendingID)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, result)
	}
}

type confirmItemsRequest struct {
	PendingID string                  `json:"pendingId"`
	Items     []model.ResolvedMachine `json:"items"`
}

// ConfirmItemsHandler はステージ3/4項目の確定です。
func ConfirmItemsHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POSTメソッドのみ許可されています", http.StatusMethodNotAllowed)
			return
		}
		var req confirmItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PendingID == "" {
			http.Error(w, "pendingIdを指定してください", http.StatusBadRequest)
			return
		}
		result, err := wf.ConfirmItems(req.PendingID, req.Items)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, result)
	}
}

// CancelHandler は確認待ちバッチの破棄です。
func CancelHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POSTメソッドのみ許可されています", http.StatusMethodNotAllowed)
			return
		}
		var req pendingIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PendingID == "" {
			http.Error(w, "pendingIdを指定してください", http.StatusBadRequest)
			return
		}
		if err := wf.Cancel(req.PendingID); err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, map[string]string{"message": "キャンセルしました"})
	}
}

// GetPendingHandler は確認待ちバッチの内容取得です (確認画面の再描画用)。
func GetPendingHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pendingID := r.URL.Query().Get("pendingId")
		if pendingID == "" {
			http.Error(w, "pendingIdを指定してください", http.StatusBadRequest)
			return
		}
		pending, err := wf.Pending(pendingID)
		if err != nil {
			writeWorkflowError(w, err)
			return
		}
		writeJSON(w, pending)
	}
}

func writeWorkflowError(w http.ResponseWriter, err error) {
	var unconfirmed *UnconfirmedError
	switch {
	case errors.As(err, &unconfirmed):
		http.Error(w, unconfirmed.Error(), http.StatusConflict)
	case errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, database.ErrStoreNotFound),
		errors.Is(err, database.ErrCompetitorNotFound),
		errors.Is(err, database.ErrCategoryNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPendingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("ERROR: machine batch handler: %v", err)
		http.Error(w, "サーバー内部でエラーが発生しました", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode response: %v", err)
	}
}
