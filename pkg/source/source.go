package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	derrors "github.com/vango-dev/defo/internal/errors"
	"github.com/vango-dev/defo/pkg/dom"
)

// DefaultMaxSize bounds how much markup a Loader reads (10MB).
const DefaultMaxSize int64 = 10 << 20

// Kind identifies where a reference points.
type Kind int

const (
	KindFile Kind = iota
	KindHTTP
	KindS3
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindHTTP:
		return "http"
	case KindS3:
		return "s3"
	default:
		return "unknown"
	}
}

// Ref is a parsed markup reference.
type Ref struct {
	Kind Kind
	// Path is the file path for KindFile and the full URL for KindHTTP.
	Path   string
	Bucket string
	Key    string
}

// String returns the reference in its original form.
func (r Ref) String() string {
	if r.Kind == KindS3 {
		return "s3://" + r.Bucket + "/" + r.Key
	}
	return r.Path
}

// ParseRef classifies s. Schemes other than http, https and s3 are
// rejected with D120.
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, derrors.New("D120").WithSubject(s)
	}
	i := strings.Index(s, "://")
	if i < 0 {
		return Ref{Kind: KindFile, Path: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, derrors.New("D120").WithSubject(s).Wrap(err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return Ref{Kind: KindHTTP, Path: s}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Ref{}, derrors.New("D120").
				WithSubject(s).
				WithSuggestion("Use s3://bucket/key")
		}
		return Ref{Kind: KindS3, Bucket: u.Host, Key: key}, nil
	default:
		return Ref{}, derrors.New("D120").WithSubject(s)
	}
}

// S3API is the subset of the S3 client the Loader uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader opens and parses markup references.
type Loader struct {
	http    *http.Client
	s3      S3API
	maxSize int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client for http(s) references.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.http = c
	}
}

// WithS3 sets the client for s3 references.
func WithS3(c S3API) Option {
	return func(l *Loader) {
		l.s3 = c
	}
}

// WithMaxSize bounds how many bytes are read. Zero or less means no limit.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// NewLoader returns a Loader with a 30s HTTP client and no S3 client.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		http:    &http.Client{Timeout: 30 * time.Second},
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open returns the raw markup for ref.
func (l *Loader) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	switch r.Kind {
	case KindFile:
		body, err = os.Open(r.Path)
	case KindHTTP:
		body, err = l.openHTTP(ctx, r.Path)
	case KindS3:
		body, err = l.openS3(ctx, r)
	}
	if err != nil {
		return nil, derrors.FromError(err, "D121").WithSubject(r.String())
	}
	return l.limit(body), nil
}

// Load opens ref and parses it into a Document.
func (l *Loader) Load(ctx context.Context, ref string) (*dom.Document, error) {
	body, err := l.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := dom.Parse(body)
	if err != nil {
		return nil, derrors.New("D122").WithSubject(ref).Wrap(err)
	}
	return doc, nil
}

func (l *Loader) openHTTP(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func (l *Loader) openS3(ctx context.Context, r Ref) (io.ReadCloser, error) {
	if l.s3 == nil {
		return nil, derrors.New("D121").
			WithSubject(r.String()).
			WithDetail("No S3 client is configured.").
			WithSuggestion("Set s3.region in defo.json or AWS_REGION in the environment")
	}
	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(r.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return out.Body, nil
}

func (l *Loader) limit(body io.ReadCloser) io.ReadCloser {
	if l.maxSize <= 0 {
		return body
	}
	return &limitedBody{Reader: io.LimitReader(body, l.maxSize), closer: body}
}

type limitedBody struct {
	io.Reader
	closer io.Closer
}

func (b *limitedBody) Close() error {
	return b.closer.Close()
}
