package engine

import "time"

// TrimCap bounds the number of ledger rows removed per pass.
const TrimCap = 1000

// LockName is the lock file name shared by every drain.
const LockName = "send_notices"

type Config struct {
	LockDir    string        `env:"NOTIFICATION_LOCK_DIR"`
	LockWait   time.Duration `env:"NOTIFICATION_LOCK_WAIT_TIMEOUT" envDefault:"-1s"`
	UIDMaxSize int           `env:"NOTIFICATION_NOTICEUID_MAX_SIZE" envDefault:"100000"`
	Admins     []string      `env:"NOTIFICATION_ADMINS" envSeparator:","`
	SiteName   string        `env:"NOTIFICATION_SITE_NAME" envDefault:"notifykit"`
}

// TrimStep returns how many ledger rows to delete when count exceeds limit:
// 10% of limit, capped at TrimCap and never less than one row.
func TrimStep(count, limit int) int {
	if count <= limit {
		return 0
	}
	return min(max(limit/10, 1), TrimCap)
}
