package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/b0bbywan/go-odio-lyrics/cache"
	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

const (
	neteaseSearchPath = "/api/search/get"
	neteaseLyricPath  = "/api/song/lyric"

	// the search API returns songs in pages of ten
	neteasePageSize = 10
)

// Netease searches music.163.com. With translation enabled the translated
// lyric is preferred when the entry has one.
type Netease struct {
	id          string
	name        string
	baseURL     string
	translation bool
	client      *http.Client
	cache       *cache.Cache[[]byte]
}

type neteaseSong struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
}

type neteaseSearchResponse struct {
	Result struct {
		Songs     []neteaseSong `json:"songs"`
		SongCount int           `json:"songCount"`
	} `json:"result"`
}

type neteaseLyric struct {
	Lyric string `json:"lyric"`
}

type neteaseLyricResponse struct {
	NoLyric     json.RawMessage `json:"nolyric"`
	Uncollected json.RawMessage `json:"uncollected"`
	Lrc         *neteaseLyric   `json:"lrc"`
	TLyric      *neteaseLyric   `json:"tlyric"`
}

// NewNetease builds the source from the lyrics configuration
func NewNetease(cfg *config.LyricsConfig) (*Netease, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid lyrics proxy %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	n := &Netease{
		id:          "netease",
		name:        "Netease",
		baseURL:     strings.TrimRight(cfg.Netease.BaseURL, "/"),
		translation: cfg.Netease.Translation,
		client:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		cache:       cache.New[[]byte](cfg.CacheTTL),
	}
	if n.translation {
		n.id = "netease_tr"
		n.name = "Netease (TR)"
	}
	return n, nil
}

func (n *Netease) ID() string   { return n.id }
func (n *Netease) Name() string { return n.name }

// Search queries the first page, and the second one when the catalog
// reports more than a page of songs.
func (n *Netease) Search(ctx context.Context, title, artist string) ([]Result, error) {
	var keys []string
	for _, k := range []string{title, artist} {
		if k != "" {
			keys = append(keys, url.QueryEscape(k))
		}
	}
	params := "s=" + strings.Join(keys, "+") + "&type=1"

	first, err := n.searchPage(ctx, params)
	if err != nil {
		return nil, err
	}
	songs := first.Result.Songs

	if first.Result.SongCount > neteasePageSize {
		second, err := n.searchPage(ctx, params+"&offset="+strconv.Itoa(neteasePageSize))
		if err != nil {
			return nil, err
		}
		songs = append(songs, second.Result.Songs...)
	}

	results := make([]Result, 0, len(songs))
	for _, song := range songs {
		results = append(results, n.toResult(song))
	}
	logger.Debug("[lyrics] %s: %d results for %q / %q", n.id, len(results), title, artist)
	return RankExactTitle(results, title), nil
}

func (n *Netease) searchPage(ctx context.Context, params string) (*neteaseSearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+neteaseSearchPath, strings.NewReader(params))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := n.do(req)
	if err != nil {
		return nil, err
	}
	var resp neteaseSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

func (n *Netease) toResult(song neteaseSong) Result {
	artist := ""
	if len(song.Artists) > 0 {
		artist = song.Artists[0].Name
	}
	return Result{
		Title:         song.Name,
		Artist:        artist,
		Album:         song.Album.Name,
		SourceID:      n.id,
		DownloadToken: n.lyricURL(song.ID),
	}
}

func (n *Netease) lyricURL(id int64) string {
	return n.baseURL + neteaseLyricPath + "?id=" + strconv.FormatInt(id, 10) + "&lv=-1&kv=-1&tv=-1"
}

// Download fetches lyric text. Only tokens issued by Search are accepted.
func (n *Netease) Download(ctx context.Context, token string) ([]byte, error) {
	if !strings.HasPrefix(token, n.baseURL+neteaseLyricPath+"?") {
		return nil, &InvalidTokenError{Token: token}
	}
	return n.cache.Fetch(token, func() ([]byte, error) {
		return n.download(ctx, token)
	})
}

func (n *Netease) download(ctx context.Context, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, token, nil)
	if err != nil {
		return nil, err
	}
	body, err := n.do(req)
	if err != nil {
		return nil, err
	}

	var resp neteaseLyricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode lyric response: %w", err)
	}
	if len(resp.NoLyric) > 0 || len(resp.Uncollected) > 0 {
		return nil, ErrNoLyrics
	}

	lyric := ""
	if n.translation && resp.TLyric != nil {
		lyric = resp.TLyric.Lyric
	}
	if lyric == "" && resp.Lrc != nil {
		lyric = resp.Lrc.Lyric
	}
	if lyric == "" {
		return nil, ErrNoLyrics
	}
	return []byte(lyric), nil
}

func (n *Netease) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logger.Debug("[lyrics] %s %s -> %d (%s)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
