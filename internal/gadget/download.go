package gadget

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Download fetches one asset into destDir, showing a progress bar on the
// terminal. Release assets are xz-compressed shared objects; those are
// decompressed in-process while streaming, and the returned path is the
// extracted .so.
func (f *Feed) Download(asset Asset, destDir string, logger *log.Logger) (string, error) {
	resp, err := f.client().Get(asset.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: server returned %s", asset.Name, resp.Status)
	}

	target := filepath.Join(destDir, strings.TrimSuffix(asset.Name, ".xz"))
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", target, err)
	}
	defer out.Close()

	progress := mpb.New(mpb.WithWidth(60))
	bar := progress.New(resp.ContentLength,
		mpb.BarStyle(),
		mpb.PrependDecorators(
			decor.Name(asset.Name+" "),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	body := bar.ProxyReader(resp.Body)
	defer body.Close()

	var src io.Reader = body
	if strings.HasSuffix(asset.Name, ".xz") {
		logger.Debug("Decompressing while downloading", "asset", asset.Name)
		xzr, err := xz.NewReader(body)
		if err != nil {
			return "", fmt.Errorf("opening xz stream for %s: %w", asset.Name, err)
		}
		src = xzr
	}

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	progress.Wait()

	logger.Debug("Downloaded gadget", "path", target)
	return target, nil
}
