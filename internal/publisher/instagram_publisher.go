package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kavyarc11/postpilot/internal/models"
)

const instagramGraphBaseURL = "https://graph.instagram.com/v21.0"

// InstagramPublisher drives the two-phase graph protocol: create a media
// container, then publish the container. Both calls must succeed; a phase-1
// failure leaves nothing referenced by the post.
type InstagramPublisher struct {
	client  *http.Client
	baseURL string
}

func NewInstagramPublisher(client *http.Client) *InstagramPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &InstagramPublisher{client: client, baseURL: instagramGraphBaseURL}
}

// WithBaseURL points the publisher at a different graph endpoint. Tests use
// this against httptest servers.
func (p *InstagramPublisher) WithBaseURL(baseURL string) *InstagramPublisher {
	p.baseURL = baseURL
	return p
}

func (p *InstagramPublisher) Platform() string {
	return models.PlatformInstagram
}

func (p *InstagramPublisher) Publish(ctx context.Context, pub *Publication) (*Result, error) {
	creationID, err := p.createContainer(ctx, pub)
	if err != nil {
		return nil, err
	}

	postID, err := p.publishContainer(ctx, pub, creationID)
	if err != nil {
		return nil, err
	}

	return &Result{PlatformPostID: postID}, nil
}

func (p *InstagramPublisher) createContainer(ctx context.Context, pub *Publication) (string, error) {
	url := fmt.Sprintf("%s/%s/media", p.baseURL, pub.AccountID)

	payload := map[string]interface{}{
		"caption":      pub.Caption,
		"access_token": pub.AccessToken,
	}
	if pub.MediaKind == "video" {
		payload["video_url"] = pub.MediaURL
		payload["media_type"] = "REELS"
	} else {
		payload["image_url"] = pub.MediaURL
	}

	id, err := p.graphCall(ctx, url, payload)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", newError(0, false, "no container ID returned from Instagram")
	}
	return id, nil
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, pub *Publication, creationID string) (string, error) {
	url := fmt.Sprintf("%s/%s/media_publish", p.baseURL, pub.AccountID)

	payload := map[string]interface{}{
		"creation_id":  creationID,
		"access_token": pub.AccessToken,
	}

	id, err := p.graphCall(ctx, url, payload)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", newError(0, false, "no media ID returned from Instagram")
	}
	return id, nil
}

// graphCall posts a JSON payload and decodes the {id} / {error:{message}}
// envelope both phases share.
func (p *InstagramPublisher) graphCall(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", newError(0, true, "HTTP request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(0, true, "error reading response body: %v", err)
	}

	var result struct {
		ID    string `json:"id"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newError(resp.StatusCode, false, "error parsing response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := result.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status code from Instagram: %d", resp.StatusCode)
		}
		return "", newError(resp.StatusCode, retryableStatus(resp.StatusCode), "%s", msg)
	}

	if result.Error.Message != "" {
		return "", newError(resp.StatusCode, false, "%s", result.Error.Message)
	}

	return result.ID, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
