// Package media implements upload validation, the tiered media store and
// byte-range playback.
package media

import (
	"context"
	"errors"
	"path"
	"strings"

	"mediavault/pkg/object"

	"go.uber.org/zap"
)

// Service composes the upload and playback flows on top of a Store.
type Service struct {
	store     *Store
	validator *Validator
	log       *zap.Logger
}

func NewService(store *Store, validator *Validator, logger *zap.Logger) *Service {
	if validator == nil {
		validator = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, validator: validator, log: logger}
}

// Upload validates buf and stores it under the base name of filename.
func (s *Service) Upload(ctx context.Context, filename string, buf []byte) (object.Object, error) {
	name := CleanFilename(filename)
	if err := s.validator.Validate(buf, name); err != nil {
		s.log.Debug("upload rejected", zap.String("filename", name), zap.Error(err))
		return object.Object{}, err
	}
	if err := object.ValidateKey(name); err != nil {
		return object.Object{}, &FileTypeError{Reason: "invalid file name"}
	}

	mime := Detect(buf)
	obj, err := s.store.Put(ctx, name, buf, mime)
	if errors.Is(err, object.ErrInvalidKey) {
		// names the backend reserves for itself
		return object.Object{}, &FileTypeError{Reason: "invalid file name"}
	}
	if err != nil {
		s.log.Error("upload failed", zap.String("filename", name), zap.Error(err))
		return object.Object{}, err
	}
	s.log.Info("video stored",
		zap.String("filename", name),
		zap.Int("size", len(buf)),
		zap.String("content_type", mime),
	)
	return obj, nil
}

// Play loads filename and cuts the window selected by rangeSpec. An empty
// rangeSpec plays the whole object.
func (s *Service) Play(ctx context.Context, filename, rangeSpec string) (StreamDescriptor, error) {
	buf, err := s.store.Get(ctx, filename)
	if err != nil {
		return StreamDescriptor{}, err
	}
	mime := Detect(buf)
	res, err := ResolveRange(int64(len(buf)), rangeSpec)
	if err != nil {
		return StreamDescriptor{}, err
	}
	return Assemble(buf, res, mime), nil
}

// List returns every stored video.
func (s *Service) List(ctx context.Context) ([]object.Object, error) {
	return s.store.List(ctx)
}

// Evict drops filename from the cache only.
func (s *Service) Evict(ctx context.Context, filename string) {
	s.store.Delete(ctx, filename)
}

// CleanFilename strips any directory part a client sent along with the name.
func CleanFilename(filename string) string {
	name := strings.ReplaceAll(filename, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "/" {
		return ""
	}
	return name
}
