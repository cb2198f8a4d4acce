package usecase

import (
	"errors"

	"krakengpt/internal/domain"
	"krakengpt/internal/port"
)

// ChatLog appends messages to a chat's stored sequence. Every append is a
// wholesale read-modify-write of the message list: the chat is read, the
// list is extended in memory and written back in full. There is no locking
// around this cycle, so two concurrent appends to the same chat race and
// the later write wins, silently discarding the earlier one. Known
// consistency gap; a single-writer-per-chat queue would close it but is not
// current behavior.
type ChatLog struct {
	store port.Store
}

func NewChatLog(store port.Store) *ChatLog {
	return &ChatLog{store: store}
}

// Append extends the chat's message list. A missing chat is a silent no-op:
// completions proceed whether or not their transcript can be recorded.
func (c *ChatLog) Append(chatID int64, messages ...domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	chat, err := c.store.GetChat(chatID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil
		}
		return err
	}

	updated := append(chat.Messages, messages...)
	_, err = c.store.UpdateChat(chatID, domain.ChatPatch{
		Messages:    updated,
		HasMessages: true,
	})
	return err
}
