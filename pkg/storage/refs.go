package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/leech/pkg/log"
)

// Head returns the current chain tip. A missing HEAD blob means the chain is
// empty and resolves to Genesis.
func Head(s Store) (string, error) {
	data, found, err := s.Load(HeadName)
	if err != nil {
		return "", err
	}
	if !found {
		return Genesis, nil
	}
	hash := strings.TrimSpace(string(data))
	log.Logger.Debug().Str("hash", short(hash)).Msg("Current head")
	return hash, nil
}

// SetHead overwrites the HEAD pointer. This is the commit point of block
// creation.
func SetHead(s Store, hash string) error {
	if err := s.Store(HeadName, []byte(hash)); err != nil {
		return err
	}
	log.Logger.Info().Str("hash", short(hash)).Msg("Updated head")
	return nil
}

// Reported returns the most recently acknowledged block hash, if any.
func Reported(s Store) (string, bool, error) {
	data, found, err := s.Load(ReportedName)
	if err != nil || !found {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// SetReported overwrites the REPORTED pointer.
func SetReported(s Store, hash string) error {
	if err := s.Store(ReportedName, []byte(hash)); err != nil {
		return err
	}
	log.Logger.Info().Str("hash", short(hash)).Msg("Updated reported")
	return nil
}

// ResolveRef resolves a hex hash prefix to a full digest. The genesis digest
// participates in matching, so the literal all-zero hash (or any unique prefix
// of it) is always accepted. A prefix matching nothing yields UnknownRefError;
// matching more than one candidate yields AmbiguousRefError.
func ResolveRef(s Store, prefix string) (string, error) {
	if !isHex(prefix) || len(prefix) > HashLen {
		return "", &UnknownRefError{Prefix: prefix}
	}

	var matches []string
	if strings.HasPrefix(Genesis, prefix) {
		matches = append(matches, Genesis)
	}

	names, err := s.List()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if IsBlockName(name) && strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", &UnknownRefError{Prefix: prefix}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", &AmbiguousRefError{Prefix: prefix, Candidates: matches}
	}
}

func short(hash string) string {
	if len(hash) > 7 {
		return fmt.Sprintf("%.7s...", hash)
	}
	return hash
}
