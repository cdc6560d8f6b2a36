// Package all links every bundled source backend into the binary. Import it
// for side effects from main; library consumers can import backends
// individually instead.
package all

import (
	_ "matomo2umami/internal/source/mysql"
	_ "matomo2umami/internal/source/sqlite"
)
