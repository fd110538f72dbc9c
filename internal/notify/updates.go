package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Update is one inbound message from the bot's chat.
type Update struct {
	ID       int64
	SenderID string
	Text     string
}

// UpdateSource retrieves inbound messages with an id strictly greater
// than afterID.
type UpdateSource interface {
	FetchUpdates(ctx context.Context, afterID int64) ([]Update, error)
}

// FetchUpdates calls getUpdates with offset afterID+1. The request uses a
// zero long-poll timeout so a polling cycle never blocks on an idle chat.
func (t *Telegram) FetchUpdates(ctx context.Context, afterID int64) ([]Update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=0", t.baseURL, t.botToken, afterID+1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create getUpdates request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll updates: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read updates response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK     bool `json:"ok"`
		Result []struct {
			UpdateID int64 `json:"update_id"`
			Message  *struct {
				Text string `json:"text"`
				Chat struct {
					ID int64 `json:"id"`
				} `json:"chat"`
			} `json:"message"`
		} `json:"result"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode updates response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates returned ok=false")
	}

	updates := make([]Update, 0, len(result.Result))
	for _, u := range result.Result {
		if u.Message == nil {
			continue
		}
		updates = append(updates, Update{
			ID:       u.UpdateID,
			SenderID: strconv.FormatInt(u.Message.Chat.ID, 10),
			Text:     u.Message.Text,
		})
	}
	return updates, nil
}

var _ UpdateSource = (*Telegram)(nil)
