package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/scanner"
)

// PageScanner collects the images referenced by an HTML page. The page may
// be a local file or an http(s) URL; relative references resolve against it.
type PageScanner struct {
	client *http.Client
	logger *slog.Logger
}

// NewPageScanner wires an HTTP client for remote pages.
func NewPageScanner(client *http.Client, logger *slog.Logger) *PageScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageScanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (p *PageScanner) Name() string {
	return "html"
}

// Scan returns one upload per distinct image, in document order.
func (p *PageScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Upload, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("no page provided for source %s", req.SourceName)
	}

	remote := isRemote(req.Path)
	var (
		doc *goquery.Document
		err error
	)
	if remote {
		doc, err = p.fetchDocument(ctx, req.Path)
	} else {
		doc, err = readDocument(req.Path)
	}
	if err != nil {
		return nil, err
	}

	refs := extractImageRefs(doc)
	uploads := make([]domain.Upload, 0, len(refs))
	seen := map[string]struct{}{}
	for _, ref := range refs {
		var (
			up domain.Upload
			ok bool
		)
		if remote {
			up, ok = p.remoteUpload(ctx, req.Path, ref)
		} else {
			up, ok = localUpload(req.Path, ref)
		}
		if !ok {
			p.debug("skip image", "source", req.SourceName, "ref", ref)
			continue
		}
		if _, dup := seen[up.Locator]; dup {
			continue
		}
		seen[up.Locator] = struct{}{}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func extractImageRefs(doc *goquery.Document) []string {
	var refs []string
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		refs = append(refs, src)
	})
	return refs
}

func readDocument(pagePath string) (*goquery.Document, error) {
	f, err := os.Open(pagePath)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func (p *PageScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "PhotoCurator/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// localUpload resolves ref next to a local page. Remote references and
// missing files are skipped.
func localUpload(pagePath, ref string) (domain.Upload, bool) {
	if isRemote(ref) || strings.HasPrefix(ref, "//") {
		return domain.Upload{}, false
	}
	ref = strings.TrimPrefix(ref, "file://")
	if u, err := url.Parse(ref); err == nil {
		ref = u.Path
	}
	if !filepath.IsAbs(ref) {
		ref = filepath.Join(filepath.Dir(pagePath), filepath.FromSlash(ref))
	}
	return statUpload(ref)
}

func (p *PageScanner) remoteUpload(ctx context.Context, pageURL, ref string) (domain.Upload, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return domain.Upload{}, false
	}
	target, err := base.Parse(ref)
	if err != nil {
		return domain.Upload{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.String(), nil)
	if err != nil {
		return domain.Upload{}, false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Upload{}, false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Upload{}, false
	}

	name := path.Base(target.Path)
	mt := strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0]
	if !strings.HasPrefix(mt, "image/") {
		guessed, ok := mediaType(name)
		if !ok {
			return domain.Upload{}, false
		}
		mt = guessed
	}
	size := resp.ContentLength
	if size < 0 {
		size = 0
	}
	return domain.Upload{Name: name, Size: size, MediaType: mt, Locator: target.String()}, true
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (p *PageScanner) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
