package util

import "time"

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeImage = "image/"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 500
)

// FormatDate 返回 t 所在的自然日
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DaysBetween 返回两个自然日（DateFormat）之间相差的天数 to - from
func DaysBetween(from, to string) (int, error) {
	f, err := time.Parse(DateFormat, from)
	if err != nil {
		return 0, err
	}
	t, err := time.Parse(DateFormat, to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}
