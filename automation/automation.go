package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
)

// DownloadSisCsv はSISデータポータルにログインし、機種マスターCSVを
// ダウンロードして saveDir に保存します。更新がない場合は "NO_UPDATE" を
// 返します (エラーではない)。
func DownloadSisCsv(userId, password, saveDir string) (string, error) {
	// 保存先ディレクトリの確保
	if _, err := os.Stat(saveDir); os.IsNotExist(err) {
		if err := os.MkdirAll(saveDir, 0755); err != nil {
			return "", fmt.Errorf("保存先フォルダの作成に失敗: %v", err)
		}
	}

	// ブラウザ起動。Leakless(false) でセキュリティソフト対策
	u := launcher.New().
		Headless(false).
		Leakless(false).
		MustLaunch()

	browser := rod.New().ControlURL(u).MustConnect()
	defer browser.MustClose()

	fmt.Println("SISデータポータルにアクセス中...")
	page := browser.MustPage("https://www.sis-data.jp/")
	page.MustWaitStable()

	fmt.Println("ログイン情報を入力中...")

	if err := rod.Try(func() {
		page.MustElement("[name='loginid']").MustInput(userId)
	}); err != nil {
		return "", fmt.Errorf("ログインID入力欄が見つかりません: %v", err)
	}

	if err := rod.Try(func() {
		page.MustElement("[name='password']").MustInput(password)
	}); err != nil {
		return "", fmt.Errorf("パスワード入力欄が見つかりません: %v", err)
	}

	fmt.Println("ログインボタンをクリック...")
	loginBtn, err := page.ElementR("input, button, a, img", "ログイン")
	if err == nil {
		loginBtn.MustClick()
	} else {
		page.KeyActions().Press(input.Enter).MustDo()
	}

	page.MustWaitStable()

	fmt.Println("メニュー[マスタダウンロード]を検索中...")
	if err := rod.Try(func() {
		page.MustElementR("a, span, div, img", "マスタダウンロード").MustClick()
	}); err != nil {
		return "", fmt.Errorf("メニュー[マスタダウンロード]が見つかりません（ログイン失敗の可能性あり）: %v", err)
	}
	page.MustWaitStable()

	// ダウンロード準備
	wait := browser.MustWaitDownload()

	// ダイアログが出たら自動的にOKを押して閉じる
	go page.MustHandleDialog()

	fmt.Println("機種マスターのダウンロードボタンをクリック...")
	clicked := false
	selectors := []string{
		"input[value*='機種マスタ']",
		"a[href*='machine']",
		"input[type='button']",
		"button",
	}
	for _, sel := range selectors {
		if el, err := page.ElementR(sel, "機種"); err == nil {
			el.MustClick()
			clicked = true
			break
		}
	}
	if !clicked {
		return "", fmt.Errorf("機種マスターのダウンロードボタンが見つかりませんでした")
	}

	// ダウンロード開始 vs 画面メッセージ変化の監視ループ
	fmt.Println("ダウンロード待機中...")

	var fileData []byte
	resultChan := make(chan string)

	go func() {
		defer func() {
			_ = recover()
		}()
		data := wait()
		fileData = data
		resultChan <- "downloaded"
	}()

	go func() {
		// 最大30秒待つ
		for i := 0; i < 60; i++ {
			time.Sleep(500 * time.Millisecond)

			if body, err := page.Element("body"); err == nil {
				text, _ := body.Text()

				if strings.Contains(text, "更新はありません") {
					resultChan <- "no_update"
					return
				}
			}
		}
	}()

	select {
	case res := <-resultChan:
		if res == "no_update" {
			return "NO_UPDATE", nil
		}
		// "downloaded" の場合は下に続く

	case <-time.After(60 * time.Second):
		return "", fmt.Errorf("処理がタイムアウトしました（ダウンロードもメッセージも確認できず）")
	}

	if len(fileData) == 0 {
		return "", fmt.Errorf("ダウンロードデータが空です")
	}

	// 取込側 (loader) が見るファイル名で保存する
	destPath := filepath.Join(saveDir, "SIS_MACHINE.CSV")
	if err := os.WriteFile(destPath, fileData, 0644); err != nil {
		return "", fmt.Errorf("ファイルの書き込みに失敗: %v", err)
	}

	fmt.Printf("ダウンロード完了: %s\n", destPath)
	return destPath, nil
}
