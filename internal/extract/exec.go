package extract

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/debug"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// filePlaceholder marks the argv position of the temp file; when absent the
// path is appended.
const filePlaceholder = "{file}"

// runDecoder writes data to a temporary file, feeds it to an out-of-process
// decoder and returns the decoder's stdout as text. The temp file is removed
// on every exit path. A missing binary or a non-zero exit surfaces as a
// descriptive error.
func runDecoder(data []byte, suffix, name string, argv ...string) (string, error) {
	tmp, err := os.CreateTemp("", "extract-*"+suffix)
	if err != nil {
		return "", errors.Wrap(err, "CreateTemp")
	}
	path := tmp.Name()
	defer func() {
		_ = os.Remove(path)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "Write")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "Close")
	}

	args := make([]string, 0, len(argv)+1)
	placed := false
	for _, a := range argv {
		if a == filePlaceholder {
			args = append(args, path)
			placed = true
			continue
		}
		args = append(args, a)
	}
	if !placed {
		args = append(args, path)
	}

	debug.Log("runDecoder %v %v", name, args)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if execErr, ok := err.(*exec.Error); ok && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", errors.Errorf("extraction requires the %q binary", name)
		}
		msg := strings.TrimSpace(strings.ToValidUTF8(stderr.String(), "�"))
		if msg == "" {
			msg = "unknown error"
		}
		return "", errors.Errorf("%s failed to extract file: %s", name, msg)
	}

	return strings.ToValidUTF8(stdout.String(), "�"), nil
}
