package sim

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	// The engine logs every event at debug level.
	// PROCSIM_DEBUG_TESTS=1 go test ./sim/... -v shows them.
	if os.Getenv("PROCSIM_DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}
