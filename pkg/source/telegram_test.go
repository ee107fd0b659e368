package source

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
)

func TestChannelUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"townnews", "townnews"},
		{"@townnews", "townnews"},
		{"t.me/townnews", "townnews"},
		{"https://t.me/townnews", "townnews"},
		{"https://t.me/townnews/", "townnews"},
		{" @townnews ", "townnews"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, channelUsername(tt.in), "address %q", tt.in)
	}
}

func TestCollectMessages(t *testing.T) {
	hist := &tg.MessagesChannelMessages{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 5, Message: "newest", Date: 1700000500},
			&tg.Message{ID: 4, Message: "", Date: 1700000400}, // no text
			&tg.Message{ID: 3, Message: "older", Date: 1700000300},
			&tg.Message{ID: 2, Message: "below boundary", Date: 1700000200},
			&tg.MessageEmpty{ID: 1},
		},
	}

	items := collectMessages(hist, 2)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(5), items[0].ID)
	assert.Equal(t, "newest", items[0].Text)
	assert.Equal(t, int64(3), items[1].ID)
	assert.Equal(t, int64(1700000300), items[1].OccurredAt.Unix())
}

func TestCollectMessagesEmptyHistory(t *testing.T) {
	items := collectMessages(&tg.MessagesMessages{}, 0)
	assert.Empty(t, items)
}
