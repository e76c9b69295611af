package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Key prefixes. Keys are partitioned hive-style so they can be queried in place.
const (
	DownloadedPrefix = "state=downloaded/"
	StructuredPrefix = "state=structured/"

	RunDateLayout = "20060102"
)

// Metadata keys attached to raw transcripts.
const (
	MetaCID            = "cid"
	MetaCallURL        = "call_url"
	MetaDownloadedAt   = "fool_download_ts"
	MetaRunID          = "run_id"
	MetaScraperVersion = "scraper_version"
)

// ErrBadKey is returned when a key does not follow the expected layout.
var ErrBadKey = errors.New("malformed key")

// DownloadedKey is where the gzipped html for cid downloaded on runDate lives.
func DownloadedKey(runDate time.Time, cid string) string {
	return fmt.Sprintf("%srundate=%s/cid=%s.gz", DownloadedPrefix, runDate.UTC().Format(RunDateLayout), cid)
}

// StructuredPrefixFor returns the prefix holding structured output of one scraper version.
func StructuredPrefixFor(version string) string {
	return fmt.Sprintf("%sversion=%s/", StructuredPrefix, version)
}

// StructuredKey is where the structured json for cid produced by version lives.
func StructuredKey(version, cid string) string {
	return fmt.Sprintf("%scid=%s.json", StructuredPrefixFor(version), cid)
}

// DownloadedKeyInfo is the parsed form of a downloaded key.
type DownloadedKeyInfo struct {
	RunDate string
	CID     string
}

// ParseDownloadedKey splits a key produced by DownloadedKey.
func ParseDownloadedKey(key string) (DownloadedKeyInfo, error) {
	rest, ok := strings.CutPrefix(key, DownloadedPrefix)
	if !ok {
		return DownloadedKeyInfo{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	runDate, cid, err := partitions(rest, "rundate", ".gz")
	if err != nil {
		return DownloadedKeyInfo{}, fmt.Errorf("%w: %q", err, key)
	}
	if _, err := time.Parse(RunDateLayout, runDate); err != nil {
		return DownloadedKeyInfo{}, fmt.Errorf("%w: bad rundate in %q", ErrBadKey, key)
	}
	return DownloadedKeyInfo{RunDate: runDate, CID: cid}, nil
}

// ParseStructuredKey splits a key produced by StructuredKey.
func ParseStructuredKey(key string) (version, cid string, err error) {
	rest, ok := strings.CutPrefix(key, StructuredPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	version, cid, err = partitions(rest, "version", ".json")
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", err, key)
	}
	return version, cid, nil
}

// partitions parses "<name>=<value>/cid=<cid><ext>".
func partitions(rest, name, ext string) (string, string, error) {
	dir, file, ok := strings.Cut(rest, "/")
	if !ok || strings.Contains(file, "/") {
		return "", "", ErrBadKey
	}
	value, ok := strings.CutPrefix(dir, name+"=")
	if !ok || value == "" {
		return "", "", ErrBadKey
	}
	cid, ok := strings.CutPrefix(file, "cid=")
	if !ok {
		return "", "", ErrBadKey
	}
	cid, ok = strings.CutSuffix(cid, ext)
	if !ok || cid == "" {
		return "", "", ErrBadKey
	}
	return value, cid, nil
}
