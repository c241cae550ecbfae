package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session lifecycle (info)
		"Capture session started (delay %d ms, queue %d)":         "キャプチャセッションを開始しました (遅延 %d ms, キュー %d)",
		"Capture session stopped: %d frames received, %d settled": "キャプチャセッションを停止しました: 受信 %d フレーム, 確定 %d フレーム",
		"Frame source closed, ending session":                     "フレームソースが閉じられました。セッションを終了します",
		"Display resized from %dx%d to %dx%d":                     "画面サイズが %dx%d から %dx%d に変わりました",
		"Failed to start frame source: %s":                        "フレームソースの開始に失敗しました: %s",
		"Failed to stop frame source: %s":                         "フレームソースの停止に失敗しました: %s",
		"Ignoring frame outside a session":                        "セッション外のフレームを無視します",

		// Stabilization
		"Frame changed, waiting %d ms to settle":              "フレームが変化しました。安定まで %d ms 待機します",
		"Frame settled: %dx%d":                                "フレームが安定しました: %dx%d",
		"Content is scrolling":                                "コンテンツがスクロール中です",
		"Scroll from %s (delta %d), cancelling pending frame": "%s からのスクロール (変化量 %d)。保留中のフレームを破棄します",
		"Dropping out-of-order frame captured at %s":          "%s にキャプチャされた順序外のフレームを破棄します",

		// Queue
		"Queued settled frame %d (%dx%d, %s)":      "確定フレーム %d をキューに追加しました (%dx%d, %s)",
		"Discarded %d queued frames":               "キュー内の %d フレームを破棄しました",
		"Evicted queued frame captured at %s":      "%s にキャプチャされたフレームをキューから押し出しました",
		"Discarding frame %d ms old (limit %d ms)": "%d ms 経過したフレームを破棄します (上限 %d ms)",
		"Dropping settled frame: %s":               "確定フレームを破棄します: %s",

		// Conversion and sampling
		"Converted %dx%d frame to %s (%d bytes)": "%dx%d フレームを %s に変換しました (%d バイト)",
		"Dominant color %s":                      "主要色 %s",

		// Debug output
		"Rendered %dx%d preview":                            "%dx%d のプレビューを描画しました",
		"Failed to render preview: %s":                      "プレビューの描画に失敗しました: %s",
		"Failed to save debug output: %s":                   "デバッグ出力の保存に失敗しました: %s",
		"Debug output is falling behind, skipping frame %d": "デバッグ出力が追いついていないため、フレーム %d をスキップします",

		// Screen source
		"Polling screen %dx%d at %.1f fps":           "画面 %dx%d を %.1f fps で取得中",
		"Screen capture failed: %s":                  "画面キャプチャに失敗しました: %s",
		"Screen capture recovered after %d failures": "%d 回の失敗の後、画面キャプチャが回復しました",

		// Chrome source
		"Screencasting %s at %dx%d":             "%s を %dx%d でスクリーンキャスト中",
		"Dropped %d screencast frames":          "%d 枚のスクリーンキャストフレームを破棄しました",
		"Failed to decode screencast frame: %s": "スクリーンキャストフレームのデコードに失敗しました: %s",
		"Ignoring scroll payload: %s":           "スクロール通知を無視します: %s",

		// Directory source
		"Watching %s for frames": "%s のフレームを監視中",
		"Skipping %s: %s":        "%s をスキップします: %s",
		"Watcher error: %s":      "監視エラー: %s",

		// Frame server
		"Serving frames on %s":                  "%s でフレームを配信中",
		"Websocket upgrade failed: %s":          "WebSocketへのアップグレードに失敗しました: %s",
		"Websocket client connected from %s":    "%s からWebSocketクライアントが接続しました",
		"Websocket read failed: %s":             "WebSocketの読み取りに失敗しました: %s",
		"Ignoring websocket message of type %q": "種別 %q のWebSocketメッセージを無視します",
	})
}
