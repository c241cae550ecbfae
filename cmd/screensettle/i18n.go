// Package main provides localization for the screensettle CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Source":        "フレームソース",
		"Stabilization": "安定化",
		"Conversion":    "変換",
		"Server":        "配信サーバー",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Capture settled screen frames as planar YUV":                                                                                                "安定した画面フレームをプレーナーYUVとしてキャプチャ",
		"screensettle watches a display, waits for the picture to stop changing, and serves the settled frame as NV21/NV12 with its dominant color.": "screensettleは画面を監視し、表示の変化が止まるのを待って、安定したフレームを主要色とともにNV21/NV12で配信します。",

		// Commands
		"Capture settled frames and serve them": "安定したフレームをキャプチャして配信",
		"Convert a still image to planar YUV":   "静止画をプレーナーYUVに変換",
		"Show version information":              "バージョン情報を表示",
		"screensettle version %s":               "screensettle バージョン %s",

		// Source flags
		"Configuration file (.yaml or .ini)":                                             "設定ファイル（.yaml または .ini）",
		"Frame source (screen, chrome, dir)":                                             "フレームソース（screen, chrome, dir）",
		"Page to screencast with the chrome source":                                      "chromeソースでスクリーンキャストするページ",
		"Directory watched by the dir source":                                            "dirソースで監視するディレクトリ",
		"Screen region as x,y,w,h (default: full screen)":                                "キャプチャ範囲 x,y,w,h（デフォルト: 全画面）",
		"Screen polling rate":                                                            "画面の取得レート",
		"Path to Chrome executable (falls back to CHROME_PATH env, then system default)": "Chrome実行ファイルのパス（未指定時はCHROME_PATH環境変数、次にシステムデフォルト）",
		"Show the Chrome window":                                                         "Chromeのウィンドウを表示",

		// Stabilization flags
		"Stabilization delay in milliseconds":             "安定化の待ち時間（ミリ秒）",
		"Settled frames kept for consumers":               "利用者向けに保持する確定フレーム数",
		"Default maximum frame age in milliseconds":       "フレームの既定の最大経過時間（ミリ秒）",
		"Treat large frame-to-frame changes as scrolling": "フレーム間の大きな変化をスクロールとして扱う",

		// Conversion flags
		"Chroma layout (nv21, nv12)":                       "色差の並び（nv21, nv12）",
		"Chroma rounding (shift, biased)":                  "色差の丸め方（shift, biased）",
		"Output file path (default: input name with .yuv)": "出力ファイルパス（デフォルト: 入力名の拡張子を.yuvに変更）",
		"Scale the image to this width before converting":  "変換前にこの幅へ縮小・拡大",
		"Overwrite an existing output file":                "既存の出力ファイルを上書き",
		"Print the result as JSON":                         "結果をJSONで出力",

		// Server and debug flags
		"Address of the frame server":                         "フレーム配信サーバーのアドレス",
		"Save settled frames and previews":                    "確定フレームとプレビューを保存",
		"Directory for debug output":                          "デバッグ出力先ディレクトリ",
		"Write a session summary to this path (.md or .json)": "セッションのサマリーをこのパスに出力（.md または .json）",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Runtime messages
		"Error: %s":                               "エラー: %s",
		"Interrupted, shutting down...":           "中断されました。シャットダウン中...",
		"Summary saved to %s":                     "サマリーを %s に保存しました",
		"Failed to write summary: %s":             "サマリーの書き込みに失敗しました: %s",
		"exactly one input image is required":     "入力画像を1つだけ指定してください",
		"Converted %s (%dx%d) to %s":              "%s (%dx%d) を %s に変換しました",
		"Layout: %s, %d bytes, dominant color %s": "レイアウト: %s, %d バイト, 主要色 %s",

		// Summary report
		"Capture Session Summary":  "キャプチャセッションサマリー",
		"Session":                  "セッション",
		"Started":                  "開始",
		"Stopped":                  "停止",
		"Duration":                 "所要時間",
		"Frame Size":               "フレームサイズ",
		"Converted Frame":          "変換後フレーム",
		"Settings":                 "設定",
		"Stabilization Delay":      "安定化の待ち時間",
		"Queue Size":               "キューサイズ",
		"Max Frame Age":            "最大経過時間",
		"Chroma Layout":            "色差の並び",
		"Content Scroll Detection": "コンテンツのスクロール検出",
		"Scroll Throttle":          "スクロール間引き",
		"Frames":                   "フレーム",
		"Received":                 "受信",
		"Unchanged":                "変化なし",
		"Out of Order":             "順序外",
		"Timers Armed":             "タイマー設定",
		"Settled":                  "確定",
		"Conversion Failures":      "変換失敗",
		"Evicted":                  "追い出し",
		"Fetched":                  "取得",
		"Too Old":                  "期限切れ",
		"Settle Rate":              "確定率",
		"Scrolling":                "スクロール",
		"Scroll Cancels":           "スクロールによる破棄",
		"Throttled Signals":        "間引かれた通知",
		"Content Scrolls":          "コンテンツのスクロール",
		"Last Dominant Color":      "最後の主要色",
		"Generated at":             "生成日時",
		"Item":                     "項目",
		"Value":                    "値",
		"On":                       "有効",
		"Off":                      "無効",
	})
}
