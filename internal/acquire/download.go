package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// download is one track to fetch.
type download struct {
	URL  string
	Path string
}

// fetchAll downloads every item in order. When a progress writer is set
// each file gets an mpb bar.
func (c *Client) fetchAll(ctx context.Context, items []download) ([]string, error) {
	var progress *mpb.Progress
	if c.opts.Progress != nil {
		progress = mpb.NewWithContext(ctx, mpb.WithOutput(c.opts.Progress), mpb.WithWidth(48))
	}

	var saved []string
	var firstErr error
	for _, item := range items {
		if err := c.fetch(ctx, progress, item); err != nil {
			firstErr = err
			break
		}
		c.logger.Printf("saved %s", item.Path)
		saved = append(saved, item.Path)
	}
	if progress != nil {
		progress.Wait()
	}
	return saved, firstErr
}

func (c *Client) fetch(ctx context.Context, progress *mpb.Progress, item download) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	resp, err := c.download.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", item.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: http.MethodGet, URL: item.URL, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0o755); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}
	tmp := item.Path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	var body io.Reader = resp.Body
	var bar *mpb.Bar
	if progress != nil {
		name := filepath.Base(item.Path)
		bar = progress.AddBar(max(resp.ContentLength, 0),
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
				decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "done"),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f"),
			),
		)
		body = bar.ProxyReader(resp.Body)
	}

	_, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if bar != nil {
		if copyErr != nil {
			bar.Abort(false)
		} else {
			bar.SetTotal(-1, true)
		}
	}
	if copyErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", item.URL, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, closeErr)
	}
	return os.Rename(tmp, item.Path)
}
