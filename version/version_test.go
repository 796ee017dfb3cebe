package version_test

import (
	"strings"
	"testing"

	"github.com/microtonal/tetrachord/version"
)

func TestDescribe(t *testing.T) {
	d := version.Describe("tetrachord")
	if !strings.HasPrefix(d, "tetrachord "+version.VersionOrHash) {
		t.Errorf("Describe() = %q, want it to start with the tool and version", d)
	}
	if version.VersionOrHash == "" {
		t.Error("VersionOrHash is empty")
	}
}
