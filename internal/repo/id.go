package repo

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID prefixes per collection.
const (
	PrefixSuggestion = "suggestion"
	PrefixUser       = "user"
	PrefixComment    = "comment"
	PrefixNotif      = "notif"
	PrefixIdem       = "idem"
)

const suffixLen = 9

// 36^9, the number of distinct suffixes.
const suffixSpace = 101559956668416

// NewID returns "<prefix>_<unix millis>_<9 base36 chars>".
func NewID(prefix string) string {
	return newIDAt(prefix, time.Now())
}

func newIDAt(prefix string, now time.Time) string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) % suffixSpace
	suffix := strconv.FormatUint(n, 36)
	if len(suffix) < suffixLen {
		suffix = strings.Repeat("0", suffixLen-len(suffix)) + suffix
	}
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
