package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrTooLarge             = errors.New("file is too large")
)

// Policy restricts what Save accepts and where it puts the file. An empty Extensions or ContentTypes list
// disables that check.
type Policy struct {
	Dir          string
	Extensions   []string
	ContentTypes []string
	MaxSize      int64
}

func (p Policy) allows(ext, contentType string) bool {
	if len(p.Extensions) > 0 && !contains(p.Extensions, strings.TrimPrefix(ext, ".")) {
		return false
	}
	if len(p.ContentTypes) > 0 && !contains(p.ContentTypes, contentType) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

var (
	imageExtensions = []string{"jpg", "jpeg", "png", "gif"}
	imageTypes      = []string{"image/jpeg", "image/png", "image/gif"}
)

// ImagePolicy checks the extension as well as the declared content type.
func ImagePolicy(dir string, maxSize int64) Policy {
	return Policy{Dir: dir, Extensions: imageExtensions, ContentTypes: imageTypes, MaxSize: maxSize}
}

func VideoPolicy(dir string, maxSize int64) Policy {
	return Policy{Dir: dir, Extensions: []string{"mp4", "mov", "avi"}, MaxSize: maxSize}
}

type Store struct {
	root      string
	urlPrefix string
	logger    *zap.Logger
}

func NewStore(root, urlPrefix string, log *zap.Logger) *Store {
	return &Store{root: root, urlPrefix: "/" + strings.Trim(urlPrefix, "/"), logger: log}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) URLPrefix() string {
	return s.urlPrefix
}

// Save writes r under a fresh unique name and returns its URL. Nothing is left on disk when Save fails.
func (s *Store) Save(r io.Reader, filename, contentType string, p Policy) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !p.allows(ext, contentType) {
		return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedMediaType, filename, contentType)
	}

	dir := filepath.Join(s.root, filepath.FromSlash(p.Dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("couldn't create upload directory: %w", err)
	}

	name := uuid.New().String() + ext
	fp := filepath.Join(dir, name)
	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("couldn't create file: %w", err)
	}

	src := r
	if p.MaxSize > 0 {
		src = io.LimitReader(r, p.MaxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && p.MaxSize > 0 && n > p.MaxSize {
		err = fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, p.MaxSize)
	}
	if err != nil {
		if rerr := os.Remove(fp); rerr != nil {
			s.logger.Sugar().Warnf("Couldn't remove partial upload %s: %s.", fp, rerr)
		}
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("couldn't write file: %w", err)
	}

	s.logger.Sugar().Debugf("Stored upload %q as %s (%d bytes).", filename, fp, n)
	return path.Join(s.urlPrefix, p.Dir, name), nil
}

func (s *Store) Delete(url string) {
	fp, ok := s.path(url)
	if !ok {
		s.logger.Sugar().Warnf("Not deleting %q that is outside of media prefix %s.", url, s.urlPrefix)
		return
	}
	if err := os.Remove(fp); err != nil {
		s.logger.Sugar().Warnf("Couldn't delete media file %s: %s.", fp, err)
		return
	}
	s.logger.Sugar().Debugf("Deleted media file %s.", fp)
}

func (s *Store) path(url string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+url), s.urlPrefix+"/")
	if strings.HasPrefix(rel, "/") || rel == "" {
		return "", false
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), true
}
