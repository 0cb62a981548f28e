package postgres

import (
	"testing"

	"github.com/psg-placement/chat-service/internal/models"
)

// seedMessages builds n messages with ids 1..n in insertion order
func seedMessages(n int) []models.Message {
	out := make([]models.Message, n)
	for i := range out {
		out[i] = models.Message{ID: uint(i + 1), GroupID: "g-1", UserID: "u-1"}
	}
	return out
}

// historyWindow mirrors the Page query contract: newest first, ids strictly
// below the cursor, one extra row to detect further pages.
func historyWindow(all []models.Message, before *uint, limit int) []models.Message {
	var rows []models.Message
	for i := len(all) - 1; i >= 0; i-- {
		if before != nil && all[i].ID >= *before {
			continue
		}
		rows = append(rows, all[i])
		if len(rows) == limit+1 {
			break
		}
	}
	return rows
}

func TestBuildMessagePageNewestLast(t *testing.T) {
	all := seedMessages(8)

	page := buildMessagePage(historyWindow(all, nil, 5), 5)

	if len(page.Messages) != 5 {
		t.Fatalf("got %d messages, want 5", len(page.Messages))
	}
	// The page is chronological; a just-appended message is its last element
	if page.Messages[len(page.Messages)-1].ID != 8 {
		t.Errorf("last id = %d, want the newest message", page.Messages[len(page.Messages)-1].ID)
	}
	for i := 1; i < len(page.Messages); i++ {
		if page.Messages[i].ID <= page.Messages[i-1].ID {
			t.Fatalf("page not in chronological order: %d after %d", page.Messages[i].ID, page.Messages[i-1].ID)
		}
	}
	if !page.HasMore {
		t.Error("HasMore should be set with older messages remaining")
	}
	if page.NextCursor == nil || *page.NextCursor != 4 {
		t.Errorf("NextCursor = %v, want the oldest returned id", page.NextCursor)
	}
}

func TestMessagePageCursorChaining(t *testing.T) {
	all := seedMessages(23)
	const limit = 10

	seen := map[uint]bool{}
	var cursor *uint
	var pageSizes []int

	for i := 0; ; i++ {
		if i > 10 {
			t.Fatal("cursor chain did not terminate")
		}

		page := buildMessagePage(historyWindow(all, cursor, limit), limit)
		pageSizes = append(pageSizes, len(page.Messages))

		for _, msg := range page.Messages {
			if seen[msg.ID] {
				t.Fatalf("message %d returned twice across pages", msg.ID)
			}
			seen[msg.ID] = true
		}

		if !page.HasMore {
			if page.NextCursor != nil {
				t.Errorf("final page carries NextCursor %d", *page.NextCursor)
			}
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != len(all) {
		t.Errorf("chain covered %d of %d messages", len(seen), len(all))
	}
	if len(pageSizes) != 3 || pageSizes[0] != 10 || pageSizes[1] != 10 || pageSizes[2] != 3 {
		t.Errorf("page sizes = %v", pageSizes)
	}
}

func TestBuildMessagePageExactFit(t *testing.T) {
	all := seedMessages(5)

	page := buildMessagePage(historyWindow(all, nil, 5), 5)

	if page.HasMore {
		t.Error("HasMore set with nothing older left")
	}
	if page.NextCursor != nil {
		t.Errorf("NextCursor = %d, want nil", *page.NextCursor)
	}
	if len(page.Messages) != 5 {
		t.Errorf("got %d messages, want 5", len(page.Messages))
	}
}

func TestBuildMessagePageEmpty(t *testing.T) {
	page := buildMessagePage(nil, 10)

	if len(page.Messages) != 0 || page.HasMore || page.NextCursor != nil {
		t.Errorf("empty history page = %+v", page)
	}
}
