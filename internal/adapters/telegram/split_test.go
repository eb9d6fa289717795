package telegram

import (
	"strings"
	"testing"
)

func TestChunkMessageShortText(t *testing.T) {
	parts := ChunkMessage("hello world")
	if len(parts) != 1 || parts[0] != "hello world" {
		t.Fatalf("unexpected parts: %v", parts)
	}
}

func TestChunkMessageEmpty(t *testing.T) {
	if parts := ChunkMessage("  \n  "); parts != nil {
		t.Fatalf("expected no parts for blank input, got %v", parts)
	}
}

func TestChunkMessageSplitsOnParagraphs(t *testing.T) {
	text := strings.Repeat("a", 3000) + "\n" + strings.Repeat("b", 2000) + "\n" + strings.Repeat("c", 500)
	parts := ChunkMessage(text)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, part := range parts {
		if length := len([]rune(part)); length > messageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}
	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatal("first paragraph should stay intact")
	}
	if !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatal("trailing paragraph should be in the second part")
	}
}

func TestChunkMessageHardCutsLongParagraph(t *testing.T) {
	parts := ChunkMessage(strings.Repeat("x", messageLimit+100))
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if len([]rune(parts[0])) != messageLimit {
		t.Fatalf("first part should be exactly the limit, got %d", len([]rune(parts[0])))
	}
	if len([]rune(parts[1])) != 100 {
		t.Fatalf("second part should carry the remainder, got %d", len([]rune(parts[1])))
	}
}
