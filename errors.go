/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(cfg *Config, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/race/app.css">`, cfg.prefix))
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf(`<body class="error-page"><a href="%s/">%s</a></body></html>`, cfg.prefix, html.EscapeString(body)))

	return htmlBody.String()
}

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}
