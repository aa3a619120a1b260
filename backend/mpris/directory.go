package mpris

import (
	"strings"
	"unicode"
)

type nameLister interface {
	ListNames() ([]string, error)
	ListActivatableNames() ([]string, error)
}

// Directory lists players known to the bus. Our own MPRIS name is
// never reported.
type Directory struct {
	bus      nameLister
	selfName string
}

func NewDirectory(bus nameLister, selfName string) *Directory {
	return &Directory{bus: bus, selfName: selfName}
}

// ListActive returns players currently owning a name on the bus
func (d *Directory) ListActive() ([]PlayerInfo, error) {
	names, err := d.bus.ListNames()
	if err != nil {
		return nil, err
	}
	return playersFromBusNames(names, d.selfName), nil
}

// ListActivatable returns players the bus can start on demand
func (d *Directory) ListActivatable() ([]PlayerInfo, error) {
	names, err := d.bus.ListActivatableNames()
	if err != nil {
		return nil, err
	}
	return playersFromBusNames(names, d.selfName), nil
}

// playersFromBusNames keeps MPRIS names, in bus order, without duplicates.
func playersFromBusNames(names []string, selfName string) []PlayerInfo {
	players := []PlayerInfo{}
	seen := make(map[string]struct{})
	for _, name := range names {
		if name == selfName || !strings.HasPrefix(name, playerPrefix) {
			continue
		}
		short := strings.TrimPrefix(name, playerPrefix)
		if short == "" {
			continue
		}
		if _, dup := seen[short]; dup {
			continue
		}
		seen[short] = struct{}{}
		players = append(players, PlayerInfo{Name: short})
	}
	return players
}

func busNameFor(name string) string {
	return playerPrefix + name
}

// validatePlayerName checks a short player name before it is turned into
// a bus name. Bus name elements allow [A-Za-z0-9_-], separated by dots.
func validatePlayerName(name string) error {
	if name == "" {
		return &InvalidPlayerNameError{Name: name, Reason: "empty name"}
	}
	if len(playerPrefix)+len(name) > 255 {
		return &InvalidPlayerNameError{Name: name, Reason: "name too long"}
	}
	for _, elem := range strings.Split(name, ".") {
		if elem == "" {
			return &InvalidPlayerNameError{Name: name, Reason: "empty element"}
		}
		if elem[0] >= '0' && elem[0] <= '9' {
			return &InvalidPlayerNameError{Name: name, Reason: "element starts with a digit"}
		}
		for _, r := range elem {
			if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
				return &InvalidPlayerNameError{Name: name, Reason: "invalid character " + string(r)}
			}
		}
	}
	return nil
}
