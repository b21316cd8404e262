package notification

import (
	"fmt"
	"time"
)

// Config holds the delivery settings read from the environment.
type Config struct {
	QueueAll           bool          `env:"NOTIFICATION_QUEUE_ALL" envDefault:"false"`
	DefaultLanguage    string        `env:"NOTIFICATION_DEFAULT_LANGUAGE" envDefault:"en"`
	DefaultTimezone    string        `env:"NOTIFICATION_DEFAULT_TIMEZONE" envDefault:"UTC"`
	Secret             string        `env:"NOTIFICATION_SECRET"`
	UnsubscribeTimeout time.Duration `env:"NOTIFICATION_UNSUBSCRIBE_TIMEOUT" envDefault:"48h"`
	BackendsFile       string        `env:"NOTIFICATION_BACKENDS_FILE"`
	TemplatesDir       string        `env:"NOTIFICATION_TEMPLATES_DIR"`
	SiteURL            string        `env:"NOTIFICATION_SITE_URL" envDefault:"http://localhost:8080"`
}

// Location loads DefaultTimezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("notification: load time zone %q: %w", c.DefaultTimezone, err)
	}
	return loc, nil
}
