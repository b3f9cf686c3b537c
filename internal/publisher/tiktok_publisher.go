package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kavyarc11/postpilot/internal/models"
	"github.com/kavyarc11/postpilot/internal/transfer"
)

const tiktokOpenAPIBaseURL = "https://open.tiktokapis.com"

// TiktokPublisher posts through the direct-post init endpoints. TikTok
// pulls the media from the given URL itself, so publishing is a single
// init call; the returned publish_id identifies the post.
type TiktokPublisher struct {
	client  *http.Client
	baseURL string
}

func NewTiktokPublisher(client *http.Client) *TiktokPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &TiktokPublisher{client: client, baseURL: tiktokOpenAPIBaseURL}
}

func (p *TiktokPublisher) WithBaseURL(baseURL string) *TiktokPublisher {
	p.baseURL = baseURL
	return p
}

func (p *TiktokPublisher) Platform() string {
	return models.PlatformTiktok
}

func (p *TiktokPublisher) Publish(ctx context.Context, pub *Publication) (*Result, error) {
	if pub.MediaKind == "video" {
		return p.directPost(ctx, pub, "/v2/post/publish/video/init/", transfer.TiktokVideoInitRequest{
			PostInfo: transfer.TiktokPostInfo{
				Title:        pub.Caption,
				PrivacyLevel: "PUBLIC_TO_EVERYONE",
			},
			SourceInfo: transfer.TiktokSourceInfo{
				Source:   "PULL_FROM_URL",
				VideoURL: pub.MediaURL,
			},
		})
	}

	return p.directPost(ctx, pub, "/v2/post/publish/content/init/", transfer.TiktokPhotoInitRequest{
		PostInfo: transfer.TiktokPostInfo{
			Title:        pub.Caption,
			PrivacyLevel: "PUBLIC_TO_EVERYONE",
		},
		SourceInfo: transfer.TiktokSourceInfo{
			Source:      "PULL_FROM_URL",
			PhotoImages: []string{pub.MediaURL},
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	})
}

func (p *TiktokPublisher) directPost(ctx context.Context, pub *Publication, path string, reqBody any) (*Result, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+pub.AccessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newError(0, true, "HTTP request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(0, true, "error reading response body: %v", err)
	}

	var result transfer.TiktokPublishResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, newError(resp.StatusCode, false, "error parsing response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := result.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status code from TikTok: %d", resp.StatusCode)
		}
		return nil, newError(resp.StatusCode, retryableStatus(resp.StatusCode), "%s", msg)
	}

	// "ok" is TikTok's success code; anything else is a rejection.
	if result.Error.Code != "" && result.Error.Code != "ok" {
		return nil, newError(resp.StatusCode, false, "%s: %s", result.Error.Code, result.Error.Message)
	}

	if result.Data.PublishID == "" {
		return nil, newError(0, false, "no publish ID returned from TikTok")
	}

	return &Result{PlatformPostID: result.Data.PublishID}, nil
}
