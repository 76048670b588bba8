// Package markup builds Telegram MarkdownV2 text.
package markup

import "strings"

// Все символы, которые MarkdownV2 требует экранировать вне сущностей
const specialChars = "_*[]()~`>#+-=|{}.!\\"

var replacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(specialChars))
	for _, c := range specialChars {
		pairs = append(pairs, string(c), "\\"+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

// Функция которая делает escape спец символов markdown для телеграма
func EscapeForMarkdown(src string) string {
	return replacer.Replace(src)
}

func Bold(src string) string {
	return "*" + EscapeForMarkdown(src) + "*"
}

// Inside inline code only ` and \ need escaping.
func Code(src string) string {
	return "`" + strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(src) + "`"
}
