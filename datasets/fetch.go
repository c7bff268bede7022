package datasets

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/messiest/gaussian-processes/pkg/errors"
	"github.com/messiest/gaussian-processes/pkg/log"
)

// fetchTimeout bounds a single data set download.
const fetchTimeout = 5 * time.Minute

// Fetch downloads url to dest unless dest already exists. The download goes
// through a temporary file so a failed transfer never leaves a truncated
// data file behind.
func Fetch(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	logger := log.GetLoggerWithName("datasets")
	logger.Info("downloading data set",
		log.OperationKey, "fetch",
		"url", url,
	)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "building download request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "downloading data set")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("downloading data set: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return errors.Wrap(err, "creating download file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing download file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing download file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), dest), "moving download into place")
}
