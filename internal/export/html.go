// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/morganforge/tutor/internal/model"
)

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
	boldRegex       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports chats as a standalone page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a chat to HTML.
func (e *HTMLExporter) Export(sess model.Session) ([]byte, error) {
	if err := validate(sess); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(sess.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"tutor\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(sess.Title))
	if e.options.IncludeMetadata {
		sb.WriteString("            <div class=\"metadata\">\n")
		fmt.Fprintf(&sb, "                <span><strong>Started:</strong> %s</span>\n", formatTimestamp(sess.CreatedAt))
		fmt.Fprintf(&sb, "                <span><strong>Messages:</strong> %d</span>\n", len(sess.Messages))
		if docs := attachments(sess); len(docs) > 0 {
			fmt.Fprintf(&sb, "                <span><strong>Documents:</strong> %s</span>\n", html.EscapeString(strings.Join(docs, ", ")))
		}
		sb.WriteString("            </div>\n")
	}
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range sess.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	fmt.Fprintf(&sb, "        <footer class=\"footer\">Exported from <strong>AI Personal Tutor</strong> on %s</footer>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", msg.Role)
	fmt.Fprintf(&sb, "                <div class=\"role-label\">%s</div>\n", msg.Role.DisplayName())
	if msg.Attachment != nil {
		fmt.Fprintf(&sb, "                <div class=\"attachment\">%s</div>\n", html.EscapeString(msg.Attachment.Name))
	}
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(msg.Content))
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")

	return sb.String()
}

// formatContent converts the Markdown the tutor produces (fenced code,
// inline code, bold and paragraphs) to HTML. Fenced code is highlighted
// with chroma; everything else is escaped.
func (e *HTMLExporter) formatContent(content string) string {
	var blocks []string
	content = codeBlockRegex.ReplaceAllStringFunc(strings.TrimSpace(content), func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		blocks = append(blocks, e.renderCodeBlock(parts[1], strings.TrimRight(parts[2], "\n")))
		return fmt.Sprintf("\n\n\x00%d\x00\n\n", len(blocks)-1)
	})
	content = html.EscapeString(content)

	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if strings.HasPrefix(para, "\x00") && strings.HasSuffix(para, "\x00") {
			out = append(out, para)
			continue
		}
		para = inlineCodeRegex.ReplaceAllString(para, "<code class=\"inline-code\">$1</code>")
		para = boldRegex.ReplaceAllString(para, "<strong>$1</strong>")
		para = strings.ReplaceAll(para, "\n", "<br>\n")
		out = append(out, "<p>"+para+"</p>")
	}

	joined := strings.Join(out, "\n")
	for i, b := range blocks {
		joined = strings.ReplaceAll(joined, fmt.Sprintf("\x00%d\x00", i), b)
	}
	return joined
}

func (e *HTMLExporter) renderCodeBlock(lang, code string) string {
	label := ""
	if lang != "" {
		label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}
	styleName := "monokai"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	highlighted, err := highlightCode(lang, code, styleName)
	if err != nil {
		highlighted = fmt.Sprintf("<pre><code class=\"language-%s\">%s</code></pre>",
			html.EscapeString(lang), html.EscapeString(code))
	}
	return "<div class=\"code-block\">" + label + highlighted + "</div>"
}

// highlightCode renders code as HTML with inline chroma styles. The lexer is
// chosen by language name, then by content.
func highlightCode(lang, code, styleName string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(false))
	if err := formatter.Format(&sb, chromastyles.Get(styleName), iterator); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #111827;
            --bg-secondary: #1f2937;
            --bg-tertiary: #374151;
            --text-primary: #f9fafb;
            --text-muted: #9ca3af;
            --accent-user: #22d3ee;
            --accent-tutor: #a78bfa;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --bg-tertiary: #e5e7eb;
            --text-primary: #111827;
            --text-muted: #6b7280;
            --accent-user: #0891b2;
            --accent-tutor: #7c3aed;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 16px 20px; border-radius: 8px; border-left: 4px solid transparent; background: var(--bg-primary); }
        .user-message { border-left-color: var(--accent-user); }
        .assistant-message { border-left-color: var(--accent-tutor); }
        .role-label { font-weight: 700; margin-bottom: 6px; }
        .attachment { display: inline-block; font-size: 13px; padding: 2px 8px; margin-bottom: 8px; border-radius: 999px; background: var(--bg-tertiary); }
        .message-content p { margin-bottom: 10px; }
        .code-block { margin: 10px 0; background: var(--bg-tertiary); border-radius: 6px; overflow-x: auto; }
        .code-lang { font-size: 12px; padding: 4px 12px; color: var(--text-muted); }
        pre { padding: 12px; font-family: var(--font-mono); font-size: 14px; }
        .inline-code { font-family: var(--font-mono); padding: 1px 4px; border-radius: 4px; background: var(--bg-tertiary); }
        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); }
    </style>
`
