// Package youtube turns a video link into caption text for ingestion.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

const defaultBaseURL = "https://www.youtube.com"

// DefaultLanguages is the caption preference order when none is configured.
var DefaultLanguages = []string{"en", "vi", "es", "fr", "de", "zh", "ja", "ko"}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Client reads public caption tracks. All requests go through the web
// fetcher so they share its retry and size limits.
type Client struct {
	fetcher   ports.WebFetcher
	baseURL   string
	languages []string
}

func New(fetcher ports.WebFetcher, languages []string) *Client {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Client{fetcher: fetcher, baseURL: defaultBaseURL, languages: languages}
}

func (c *Client) FetchTranscript(ctx context.Context, rawURL string) (*domain.Transcript, error) {
	videoID, err := VideoID(rawURL)
	if err != nil {
		return nil, err
	}

	page, _, err := c.fetcher.Fetch(ctx, c.baseURL+"/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	tracks, err := parseCaptionTracks(string(page))
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "fetch transcript", fmt.Errorf("video %s: %w", videoID, err))
	}
	track := pickTrack(tracks, c.languages)

	raw, _, err := c.fetcher.Fetch(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}
	text, err := parseTimedText(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "fetch transcript", err)
	}
	if text == "" {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "fetch transcript", fmt.Errorf("video %s has an empty transcript", videoID))
	}

	return &domain.Transcript{
		VideoID:  videoID,
		Title:    c.title(ctx, videoID),
		Language: track.LanguageCode,
		Text:     text,
	}, nil
}

// title asks oEmbed for the video title and falls back to the id.
func (c *Client) title(ctx context.Context, videoID string) string {
	watch := "https://www.youtube.com/watch?v=" + videoID
	body, _, err := c.fetcher.Fetch(ctx, c.baseURL+"/oembed?format=json&url="+url.QueryEscape(watch))
	if err != nil {
		slog.Warn("youtube_title_unavailable", "video_id", videoID, "error", err)
		return videoID
	}
	var meta struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &meta); err != nil || strings.TrimSpace(meta.Title) == "" {
		return videoID
	}
	return strings.TrimSpace(meta.Title)
}

// VideoID accepts youtube.com watch, shorts and embed links and youtu.be
// short links.
func VideoID(rawURL string) (string, error) {
	invalid := domain.WrapError(domain.ErrInvalidInput, "parse video url", fmt.Errorf("not a youtube video url: %q", rawURL))

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", invalid
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live") {
			id = parts[1]
		}
	}
	if !videoIDPattern.MatchString(id) {
		return "", invalid
	}
	return id, nil
}

func parseCaptionTracks(page string) ([]captionTrack, error) {
	const key = `"captionTracks":`
	at := strings.Index(page, key)
	if at < 0 {
		return nil, errors.New("no transcript available")
	}
	var tracks []captionTrack
	if err := json.NewDecoder(strings.NewReader(page[at+len(key):])).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	usable := tracks[:0]
	for _, t := range tracks {
		if t.BaseURL != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, errors.New("no transcript available")
	}
	return usable, nil
}

// pickTrack prefers a manual track in the earliest listed language, then an
// auto-generated one, then whatever comes first.
func pickTrack(tracks []captionTrack, languages []string) captionTrack {
	for _, lang := range languages {
		var generated *captionTrack
		for i := range tracks {
			if !strings.EqualFold(baseLanguage(tracks[i].LanguageCode), lang) {
				continue
			}
			if tracks[i].Kind != "asr" {
				return tracks[i]
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return *generated
		}
	}
	return tracks[0]
}

func baseLanguage(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}

// parseTimedText joins caption lines. Line text is escaped twice in the
// track format, once by XML and once as HTML.
func parseTimedText(raw []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode caption track: %w", err)
	}
	parts := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if text := strings.TrimSpace(html.UnescapeString(line.Text)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}
