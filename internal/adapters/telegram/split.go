package telegram

import "strings"

const messageLimit = 4096

// ChunkMessage splits text into pieces that fit Telegram's message size
// limit. Paragraphs are kept together when possible; a single paragraph
// longer than the limit is hard-cut.
func ChunkMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= messageLimit {
		return []string{trimmed}
	}

	var (
		chunks  []string
		current []rune
	)
	flush := func() {
		chunk := strings.TrimSpace(string(current))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current = current[:0]
	}

	for _, paragraph := range strings.Split(trimmed, "\n") {
		runes := []rune(paragraph)
		for len(runes) > messageLimit {
			flush()
			chunks = append(chunks, string(runes[:messageLimit]))
			runes = runes[messageLimit:]
		}
		if len(current)+len(runes)+1 > messageLimit {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}
		current = append(current, runes...)
	}
	flush()
	return chunks
}
