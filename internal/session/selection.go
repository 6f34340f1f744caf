package session

import (
	"context"

	"github.com/rishi-singh26/tempbox/internal/inbox"
	"github.com/rishi-singh26/tempbox/internal/model"
)

// SelectAddress changes the selected mailbox. Any value, including nil,
// clears the selected message and its complete form: a message detail
// must never be shown against a mailbox that is no longer selected.
func (c *Controller) SelectAddress(addr *model.Address) {
	c.mu.Lock()
	c.selectedAddress = copyAddress(addr)
	c.selectedMessage = nil
	c.selectedComplete = nil
	c.mu.Unlock()

	c.cache.Publish(inbox.Event{Kind: inbox.EventSelection})
}

// SelectMessage changes the selected message within the selected mailbox.
// Selecting a non-nil message fires two independent fire-and-forget side
// effects: fetching the complete message body, and flipping the seen flag
// when the summary is unseen. Neither blocks nor fails the other.
func (c *Controller) SelectMessage(ctx context.Context, msg *model.Message) {
	c.mu.Lock()
	c.selectedMessage = copyMessage(msg)
	c.selectedComplete = nil
	addr := copyAddress(c.selectedAddress)
	c.mu.Unlock()

	c.cache.Publish(inbox.Event{Kind: inbox.EventSelection})

	if msg == nil || addr == nil || !addr.Authenticated() {
		return
	}

	go c.loadCompleteMessage(ctx, *addr, msg.ID)

	if !msg.Seen {
		go func() {
			if err := c.UpdateMessageSeenStatus(ctx, *addr, msg.ID, true); err != nil {
				c.log.WithError(err).WithField("message_id", msg.ID).
					Warn("Marking selected message seen failed")
			}
		}()
	}
}

// SelectedAddress returns a copy of the selected address, or nil.
func (c *Controller) SelectedAddress() *model.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyAddress(c.selectedAddress)
}

// SelectedMessage returns a copy of the selected summary message, or nil.
func (c *Controller) SelectedMessage() *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMessage(c.selectedMessage)
}

// SelectedCompleteMessage returns a copy of the lazily loaded complete
// form of the selected message, or nil while it has not arrived.
func (c *Controller) SelectedCompleteMessage() *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMessage(c.selectedComplete)
}

// loadCompleteMessage fetches the full-body form of the selected message.
// The result is applied only if the same message is still selected when
// it arrives.
func (c *Controller) loadCompleteMessage(ctx context.Context, addr model.Address, messageID string) {
	complete, err := c.client.GetMessage(ctx, messageID, addr.AuthToken)
	if err != nil {
		c.log.WithError(err).WithField("message_id", messageID).
			Warn("Fetching complete message failed")
		return
	}

	c.mu.Lock()
	if c.selectedMessage != nil && c.selectedMessage.ID == messageID {
		c.selectedComplete = &complete
	}
	c.mu.Unlock()

	c.cache.Publish(inbox.Event{Kind: inbox.EventSelection})
}

func copyAddress(addr *model.Address) *model.Address {
	if addr == nil {
		return nil
	}
	cp := *addr
	return &cp
}

func copyMessage(msg *model.Message) *model.Message {
	if msg == nil {
		return nil
	}
	cp := *msg
	return &cp
}
