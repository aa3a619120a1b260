package backend

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/b0bbywan/go-odio-lyrics/backend/lyrics"
	"github.com/b0bbywan/go-odio-lyrics/backend/mpris"
	"github.com/b0bbywan/go-odio-lyrics/config"
	"github.com/b0bbywan/go-odio-lyrics/logger"
)

const unknown = "unknown"

var osReleaseFiles = []string{"/etc/os-release", "/usr/lib/os-release"}

// hostOS is read once, on the first /server request.
var hostOS = sync.OnceValue(func() string {
	for _, path := range osReleaseFiles {
		if name, ok := osName(path); ok {
			return name
		}
	}
	return unknown
})

// Info describes the running daemon for GET /server.
type Info struct {
	App      string              `json:"app"`
	Version  string              `json:"version"`
	Hostname string              `json:"hostname"`
	OS       string              `json:"os"`
	Platform string              `json:"platform"`
	Backends Backends            `json:"backends"`
	Players  []mpris.PlayerInfo  `json:"connected_players,omitempty"`
	Sources  []lyrics.SourceInfo `json:"lyric_sources,omitempty"`
}

type Backends struct {
	MPRIS    bool `json:"mpris"`
	Lyrics   bool `json:"lyrics"`
	Zeroconf bool `json:"zeroconf"`
}

func osName(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	fields, err := readRelease(f)
	if err != nil {
		logger.Debug("[backend] %s: %v", path, err)
	}
	for _, key := range []string{"PRETTY_NAME", "NAME"} {
		if v := fields[key]; v != "" {
			return v, true
		}
	}
	return "", false
}

// readRelease parses os-release(5) KEY=value lines, dropping quotes.
func readRelease(r io.Reader) (map[string]string, error) {
	fields := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			fields[k] = strings.Trim(v, `"'`)
		}
	}
	return fields, sc.Err()
}

func (b *Backend) Info() Info {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = unknown
	}

	info := Info{
		App:      config.AppName,
		Version:  config.AppVersion,
		Hostname: hostname,
		OS:       hostOS(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Backends: Backends{
			MPRIS:    b.MPRIS != nil,
			Lyrics:   b.Lyrics != nil,
			Zeroconf: b.Zeroconf != nil,
		},
	}
	if b.MPRIS != nil {
		info.Players = b.MPRIS.Players()
	}
	if b.Lyrics != nil {
		info.Sources = b.Lyrics.Sources()
	}
	return info
}
