package uploader

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"picup/internal/model"
	"strings"
	"time"
)

const (
	DefaultFieldName   = "image"
	DefaultContentType = "image/*"
)

type Uploader struct {
	endpoint    string
	client      *http.Client
	fieldName   string
	contentType string
}

type Option func(*Uploader)

func WithClient(c *http.Client) Option {
	return func(u *Uploader) {
		u.client = c
	}
}

// WithTimeout sets a per-request timeout. Zero keeps the client's default.
func WithTimeout(d time.Duration) Option {
	return func(u *Uploader) {
		if d > 0 {
			u.client = &http.Client{Transport: u.client.Transport, Timeout: d}
		}
	}
}

func WithFieldName(name string) Option {
	return func(u *Uploader) {
		u.fieldName = name
	}
}

func WithContentType(ct string) Option {
	return func(u *Uploader) {
		u.contentType = ct
	}
}

func New(endpoint string, opts ...Option) *Uploader {
	u := &Uploader{
		endpoint:    endpoint,
		client:      &http.Client{},
		fieldName:   DefaultFieldName,
		contentType: DefaultContentType,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *Uploader) Endpoint() string {
	return u.endpoint
}

// Upload streams the file at path as a single multipart part. The file
// itself is only read.
func (u *Uploader) Upload(ctx context.Context, path string) (result model.UploadResult) {
	start := time.Now()
	result.Event = model.FileEvent{Path: path}

	defer func() {
		result.Duration = time.Since(start)
	}()

	f, err := os.Open(path)
	if err != nil {
		result.Kind = model.KindIO
		result.Err = fmt.Errorf("%w: %w", ErrIO, err)
		return result
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	src := &fileReader{r: f}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		u.writeBody(pw, mw, src, filepath.Base(path))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		<-done
		result.Kind = model.KindTransport
		result.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		return result
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)

	// Unblocks the writer if the endpoint answered before reading the whole body.
	_ = pr.Close()
	<-done

	if resp != nil {
		defer func(Body io.ReadCloser) {
			_, _ = io.Copy(io.Discard, Body)
			_ = Body.Close()
		}(resp.Body)
	}

	result.Size = src.n
	if src.err != nil {
		result.Kind = model.KindIO
		result.Err = fmt.Errorf("%w: %w", ErrIO, src.err)
		return result
	}

	if err != nil {
		result.Kind = model.KindTransport
		result.Err = fmt.Errorf("%w: %w", ErrTransport, err)
		return result
	}

	result.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Kind = model.KindStatus
		result.Err = &StatusError{Code: resp.StatusCode}
		return result
	}

	result.Success = true
	return result
}

func (u *Uploader) writeBody(pw *io.PipeWriter, mw *multipart.Writer, src io.Reader, filename string) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(u.fieldName), escapeQuotes(filename)))
	h.Set("Content-Type", u.contentType)

	part, err := mw.CreatePart(h)
	if err == nil {
		_, err = io.Copy(part, src)
	}
	if err == nil {
		err = mw.Close()
	}

	_ = pw.CloseWithError(err)
}

// fileReader counts bytes read from the source file and keeps the first read
// error apart from errors on the network side of the pipe.
type fileReader struct {
	r   io.Reader
	n   int64
	err error
}

func (fr *fileReader) Read(p []byte) (int, error) {
	n, err := fr.r.Read(p)
	fr.n += int64(n)
	if err != nil && err != io.EOF && fr.err == nil {
		fr.err = err
	}
	return n, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
