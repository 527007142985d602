// Package mediacms is the HTTP client for a MediaCMS instance: uploads,
// media queries, encoding status, and user profile updates.
package mediacms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const controlTimeout = 30 * time.Second

// Client talks to one MediaCMS instance with one API token. A channel
// with its own token gets its own Client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
}

// WithLogger replaces the client's logger. Useful when sync runs tag
// their log lines with a run ID.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	clone := *c
	clone.logger = logger
	return &clone
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Whoami resolves the username the token authenticates as. Every sync
// run calls this before uploading anything; a failure here aborts the
// run rather than uploading into the wrong account.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/whoami", nil)
	if err != nil {
		return "", fmt.Errorf("build whoami request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("whoami: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whoami: HTTP %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("whoami: decode response: %w", err)
	}
	if payload.Username == "" {
		return "", fmt.Errorf("whoami: response has no username")
	}
	return payload.Username, nil
}

// MediaSummary is one entry of a media listing.
type MediaSummary struct {
	FriendlyToken string `json:"friendly_token"`
	Title         string `json:"title"`
	AddDate       string `json:"add_date"`
}

// LatestMedia returns the most recently added media for the given
// author, used as the incremental sync watermark. found is false when
// the account has no media yet.
func (c *Client) LatestMedia(ctx context.Context, username string) (summary MediaSummary, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	path := "/api/v1/media/?author=" + url.QueryEscape(username) + "&show=latest"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return MediaSummary{}, false, fmt.Errorf("build media listing request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return MediaSummary{}, false, fmt.Errorf("list media for %s: %w", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MediaSummary{}, false, fmt.Errorf("list media for %s: HTTP %d: %s", username, resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload struct {
		Results []MediaSummary `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return MediaSummary{}, false, fmt.Errorf("list media for %s: decode response: %w", username, err)
	}
	if len(payload.Results) == 0 {
		return MediaSummary{}, false, nil
	}
	return payload.Results[0], true, nil
}

// ParseAddDate parses MediaCMS add_date values, which appear with and
// without sub-second precision and timezone offsets.
func ParseAddDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized add_date %q", raw)
}

// UploadTimeout scales with file size: a 30s floor plus one second per
// megabyte, capped at one hour.
func UploadTimeout(fileSize int64) time.Duration {
	mb := fileSize / (1 << 20)
	timeout := 30*time.Second + time.Duration(mb)*time.Second
	if timeout > time.Hour {
		return time.Hour
	}
	return timeout
}

// Upload posts one video as multipart form data and returns the
// friendly token MediaCMS assigned to it. The thumbnail rides along
// when present; metadata fields that are empty are simply omitted.
func (c *Client) Upload(ctx context.Context, artifactPath string, thumbnailPath string, title, description string, tags []string, publicationDate string) (string, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload file: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(artifactPath), filepath.Ext(artifactPath))
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"title":       title,
		"description": description,
	}
	if len(tags) > 0 {
		fields["tags"] = strings.Join(tags, ",")
	}
	if publicationDate != "" {
		fields["publication_date"] = publicationDate
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("media_file", filepath.Base(artifactPath))
	if err != nil {
		return "", fmt.Errorf("create media_file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy media file: %w", err)
	}

	if thumbnailPath != "" {
		if thumb, err := os.Open(thumbnailPath); err == nil {
			part, err := writer.CreateFormFile("thumbnail", filepath.Base(thumbnailPath))
			if err == nil {
				_, err = io.Copy(part, thumb)
			}
			thumb.Close()
			if err != nil {
				return "", fmt.Errorf("attach thumbnail: %w", err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	timeout := UploadTimeout(stat.Size())
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Info("uploading media",
		"title", title,
		"size_mb", fmt.Sprintf("%.2f", float64(stat.Size())/(1<<20)),
		"timeout", timeout.String())

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/media/", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload %s: HTTP %d: %s", title, resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload struct {
		FriendlyToken string `json:"friendly_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("upload %s: decode response: %w", title, err)
	}

	elapsed := time.Since(start)
	c.logger.Info("upload complete",
		"title", title,
		"friendly_token", payload.FriendlyToken,
		"elapsed", elapsed.Round(time.Millisecond).String())
	return payload.FriendlyToken, nil
}

// UpdateUserProfile pushes channel name, description, and logo onto the
// MediaCMS user that owns the token. The logo is fetched from the
// channel's thumbnail URL when one is set; a failed logo fetch degrades
// to a name-and-description update.
func (c *Client) UpdateUserProfile(ctx context.Context, name, description, logoURL string) error {
	username, err := c.Whoami(ctx)
	if err != nil {
		return fmt.Errorf("resolve username for profile update: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("name", name); err != nil {
		return fmt.Errorf("write name field: %w", err)
	}
	if err := writer.WriteField("description", description); err != nil {
		return fmt.Errorf("write description field: %w", err)
	}

	if logoURL != "" {
		logo, contentType, err := fetchLogo(ctx, logoURL)
		if err != nil {
			c.logger.Warn("skipping logo update", "url", logoURL, "error", err)
		} else {
			header := textproto.MIMEHeader{}
			header.Set("Content-Disposition", `form-data; name="logo"; filename="logo.jpg"`)
			header.Set("Content-Type", contentType)
			part, err := writer.CreatePart(header)
			if err != nil {
				return fmt.Errorf("create logo part: %w", err)
			}
			if _, err := part.Write(logo); err != nil {
				return fmt.Errorf("write logo part: %w", err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/users/"+url.PathEscape(username), &body)
	if err != nil {
		return fmt.Errorf("build profile update request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update profile for %s: %w", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("update profile for %s: HTTP %d: %s", username, resp.StatusCode, readErrorBody(resp.Body))
	}
	c.logger.Info("updated channel profile", "username", username, "name", name)
	return nil
}

func fetchLogo(ctx context.Context, logoURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

// TokenBinding pairs a configured channel name with its MediaCMS token.
type TokenBinding struct {
	ChannelName string
	Token       string
}

// FindTokenForUsername scans channel bindings and returns the first
// token whose whoami matches the target username, case-insensitively.
// Used by explicit video ID sync, where the caller names a MediaCMS
// user instead of a configured channel.
func FindTokenForUsername(ctx context.Context, baseURL string, bindings []TokenBinding, target string) (string, error) {
	for _, b := range bindings {
		if b.Token == "" {
			continue
		}
		username, err := NewClient(baseURL, b.Token).Whoami(ctx)
		if err != nil {
			slog.Warn("whoami failed while resolving token", "channel", b.ChannelName, "error", err)
			continue
		}
		if strings.EqualFold(username, target) {
			return b.Token, nil
		}
	}
	return "", fmt.Errorf("no configured channel token maps to MediaCMS user %q", target)
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(data))
}
