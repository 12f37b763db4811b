// SPDX-License-Identifier: MPL-2.0

package cueutil_test

import (
	"strings"
	"testing"

	"github.com/imago-dev/imago/pkg/cueutil"
)

const testSchema = `
#Config: {
	container_engine?: "docker" | "podman"
	concurrency?:      int & >=1
}
`

type testConfig struct {
	ContainerEngine string `json:"container_engine"`
	Concurrency     int    `json:"concurrency"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	data := []byte(`
container_engine: "podman"
concurrency:      8
`)
	res, err := cueutil.ParseAndDecode[testConfig]([]byte(testSchema), data, "#Config")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if res.Value.ContainerEngine != "podman" || res.Value.Concurrency != 8 {
		t.Errorf("decoded = %+v", res.Value)
	}
}

func TestParseAndDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	data := []byte(`container_engine: "lxc"`)
	_, err := cueutil.ParseAndDecode[testConfig]([]byte(testSchema), data, "#Config",
		cueutil.WithFilename("config.cue"))
	if err == nil {
		t.Fatal("ParseAndDecode() succeeded, want schema error")
	}
	if !strings.Contains(err.Error(), "config.cue") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestParseAndDecode_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := cueutil.ParseAndDecode[testConfig]([]byte(testSchema), []byte(`{{`), "#Config")
	if err == nil {
		t.Fatal("ParseAndDecode() succeeded, want parse error")
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := cueutil.CheckFileSize(make([]byte, 10), 10, "f"); err != nil {
		t.Errorf("CheckFileSize() at limit = %v, want nil", err)
	}
	if err := cueutil.CheckFileSize(make([]byte, 11), 10, "f"); err == nil {
		t.Error("CheckFileSize() over limit = nil, want error")
	}
}
