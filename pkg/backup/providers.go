package backup

import (
	"time"

	"github.com/google/uuid"
)

// IDProvider yields a new unique backup id. The default is a random
// 128-bit UUID; tests inject deterministic ids.
type IDProvider func() string

// Clock yields the current time. Tests inject fixed clocks.
type Clock func() time.Time

func defaultIDProvider() string {
	return uuid.NewString()
}

func defaultClock() time.Time {
	return time.Now().UTC()
}
