package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
)

const defaultMaxUploadBytes = 5 << 20

// Store writes decoded image uploads to the local media directory and maps
// them to public URL paths.
type Store struct {
	dir      string
	prefix   string
	maxBytes int64
	logg     *logger.Logger
}

// NewStore prepares the media root described by cfg.
func NewStore(cfg config.MediaConfig, logg *logger.Logger) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("media dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	prefix := "/" + strings.Trim(strings.TrimSpace(cfg.PublicPrefix), "/")
	if prefix == "/" {
		prefix = "/media"
	}
	maxBytes := cfg.MaxUploadBytes()
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &Store{dir: dir, prefix: prefix, maxBytes: maxBytes, logg: logg}, nil
}

// Prefix is the URL path uploads are served under.
func (s *Store) Prefix() string {
	return s.prefix
}

// Handler serves stored files beneath Prefix.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(s.prefix+"/", http.FileServer(http.Dir(s.dir)))
}

// Save decodes a base64 data URI (data:image/png;base64,....), validates the
// sniffed content type, and returns the public path of the written file.
func (s *Store) Save(ctx context.Context, kind enums.MediaKind, dataURI string) (string, error) {
	if !kind.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "unknown media kind")
	}
	field := fieldFor(kind)

	data, err := decodeDataURI(dataURI)
	if err != nil {
		return "", invalidUpload(field, err.Error())
	}
	if int64(len(data)) > s.maxBytes {
		return "", invalidUpload(field, fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}
	detected, err := sniff(kind, data)
	if err != nil {
		return "", invalidUpload(field, err.Error())
	}

	name := uuid.NewString() + detected.Extension()
	target := filepath.Join(s.dir, kind.Dir())
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create media dir")
	}
	if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write media file")
	}

	url := path.Join(s.prefix, kind.Dir(), name)
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"kind": kind.String(), "bytes": len(data), "mime": detected.String()})
		s.logg.Debug(ctx, "media stored")
	}
	return url, nil
}

// Delete removes the file behind publicURL. Unknown or foreign URLs are ignored.
func (s *Store) Delete(ctx context.Context, publicURL string) error {
	rel, ok := strings.CutPrefix(publicURL, s.prefix+"/")
	if !ok {
		return nil
	}
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "url", publicURL), "media delete failed")
		}
		return err
	}
	return nil
}

// StoredBefore lists the public URLs of files of the given kind last written
// before cutoff.
func (s *Store) StoredBefore(ctx context.Context, kind enums.MediaKind, cutoff time.Time) ([]string, error) {
	root := filepath.Join(s.dir, kind.Dir())
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read media dir: %w", err)
	}
	var urls []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			urls = append(urls, path.Join(s.prefix, kind.Dir(), entry.Name()))
		}
	}
	return urls, nil
}

func decodeDataURI(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("image is required")
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("expected a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload")
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	return data, nil
}

func invalidUpload(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid upload").WithDetails(map[string]string{field: reason})
}
