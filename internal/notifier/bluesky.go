package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"StonksBot/internal/model"
)

const (
	DefaultHost    = "https://bsky.social"
	DefaultAltText = "Market Update"
)

var (
	ErrAuth   = errors.New("bluesky: authentication failed")
	ErrUpload = errors.New("bluesky: blob upload failed")
	ErrPost   = errors.New("bluesky: create post failed")
)

// PostRef identifies a created post.
type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// BlueskyPublisher posts text with an attached image through the AT Protocol
// XRPC endpoints of a PDS.
type BlueskyPublisher struct {
	Host       string
	Identifier string
	Password   string
	AltText    string
	Client     *http.Client
}

// NewBlueskyPublisher creates a publisher with optional proxy support.
func NewBlueskyPublisher(host, identifier, password, altText, proxyURL string) *BlueskyPublisher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if host == "" {
		host = DefaultHost
	}
	if altText == "" {
		altText = DefaultAltText
	}
	return &BlueskyPublisher{
		Host:       host,
		Identifier: identifier,
		Password:   password,
		AltText:    altText,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type session struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type imageEmbed struct {
	Alt         string          `json:"alt"`
	Image       json.RawMessage `json:"image"`
	AspectRatio *aspectRatio    `json:"aspectRatio,omitempty"`
}

type aspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type feedPost struct {
	Type      string   `json:"$type"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	Langs     []string `json:"langs,omitempty"`
	Embed     struct {
		Type   string       `json:"$type"`
		Images []imageEmbed `json:"images"`
	} `json:"embed"`
}

// Publish logs in, uploads the image as a blob and creates the post. Every
// call creates a new post.
func (b *BlueskyPublisher) Publish(ctx context.Context, text string, img *model.CompressedImage) (*PostRef, error) {
	sess, err := b.login(ctx)
	if err != nil {
		return nil, err
	}

	blob, err := b.uploadBlob(ctx, sess, img.Data)
	if err != nil {
		return nil, err
	}

	post := feedPost{
		Type:      "app.bsky.feed.post",
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     []string{"en"},
	}
	post.Embed.Type = "app.bsky.embed.images"
	embed := imageEmbed{Alt: b.AltText, Image: blob}
	if img.Width > 0 && img.Height > 0 {
		embed.AspectRatio = &aspectRatio{Width: img.Width, Height: img.Height}
	}
	post.Embed.Images = []imageEmbed{embed}

	var ref PostRef
	if err := b.call(ctx, "com.atproto.repo.createRecord", sess.AccessJwt, map[string]any{
		"repo":       sess.DID,
		"collection": "app.bsky.feed.post",
		"record":     post,
	}, &ref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPost, err)
	}
	return &ref, nil
}

func (b *BlueskyPublisher) login(ctx context.Context) (*session, error) {
	var sess session
	if err := b.call(ctx, "com.atproto.server.createSession", "", map[string]string{
		"identifier": b.Identifier,
		"password":   b.Password,
	}, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if sess.AccessJwt == "" || sess.DID == "" {
		return nil, fmt.Errorf("%w: session response missing token or did", ErrAuth)
	}
	return &sess, nil
}

func (b *BlueskyPublisher) uploadBlob(ctx context.Context, sess *session, data []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.Host+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Authorization", "Bearer "+sess.AccessJwt)

	var out struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := b.do(req, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if len(out.Blob) == 0 {
		return nil, fmt.Errorf("%w: response missing blob", ErrUpload)
	}
	return out.Blob, nil
}

// call POSTs a JSON body to an XRPC procedure and decodes the JSON reply.
func (b *BlueskyPublisher) call(ctx context.Context, nsid, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Host+"/xrpc/"+nsid, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return b.do(req, out)
}

func (b *BlueskyPublisher) do(req *http.Request, out any) error {
	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
