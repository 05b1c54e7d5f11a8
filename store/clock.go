package store

import "time"

// nowUTC is swapped out by tests that need a fixed resolution time.
var nowUTC = func() time.Time { return time.Now().UTC() }
