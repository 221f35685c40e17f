package face

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Registry manages the known-people catalogue: reference images on
// disk, records in the store. Names feed the face perception adapter
// as match candidates.
type Registry struct {
	store    *Store
	imageDir string
	logger   *slog.Logger
}

func NewRegistry(store *Store, imageDir string, logger *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		imageDir: imageDir,
		logger:   logger.With("component", "face_registry"),
	}
}

// Register stores one person: the frame lands on disk as the reference
// image, the record in the database. Registering an existing name
// replaces the reference image and aliases.
func (r *Registry) Register(ctx context.Context, name string, aliases []string, frame []byte) (*Face, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("face name is required")
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("face registration requires a camera frame")
	}
	aliases = cleanAliases(name, aliases)

	if err := os.MkdirAll(r.imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	existing, err := r.store.GetByName(ctx, name)
	if err == nil {
		if writeErr := os.WriteFile(existing.ImagePath, frame, 0o644); writeErr != nil {
			return nil, fmt.Errorf("update reference image: %w", writeErr)
		}
		existing.Aliases = aliases
		if err := r.store.db.WithContext(ctx).Model(existing).Update("aliases", existing.Aliases).Error; err != nil {
			return nil, err
		}
		r.logger.Info("face reference updated", "face_id", existing.ID, "name", name)
		return existing, nil
	}

	f := &Face{Name: name, Aliases: aliases}
	if err := r.store.Create(ctx, f); err != nil {
		return nil, err
	}

	path := filepath.Join(r.imageDir, sanitizeName(name)+"_"+f.ID+".jpg")
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		_ = r.store.Delete(ctx, f.ID)
		return nil, fmt.Errorf("write reference image: %w", err)
	}

	f.ImagePath = path
	if err := r.store.db.WithContext(ctx).Model(f).Update("image_path", path).Error; err != nil {
		return nil, err
	}

	r.logger.Info("face registered", "face_id", f.ID, "name", name)
	return f, nil
}

// Names returns every registered name and alias, used as
// identification candidates.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	faces, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(faces))
	for _, f := range faces {
		names = append(names, f.Name)
		names = append(names, f.Aliases...)
	}
	return names, nil
}

func (r *Registry) List(ctx context.Context) ([]*Face, error) {
	return r.store.List(ctx)
}

// Remove deletes the record and its reference image.
func (r *Registry) Remove(ctx context.Context, id string) error {
	f, err := r.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f.ImagePath != "" {
		if err := os.Remove(f.ImagePath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("could not remove reference image", "path", f.ImagePath, "error", err)
		}
	}
	return r.store.Delete(ctx, id)
}

func (r *Registry) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx)
}

// cleanAliases trims, dedupes, and drops aliases equal to the primary
// name so the candidate list never repeats a person.
func cleanAliases(name string, aliases []string) []string {
	seen := map[string]bool{strings.ToLower(name): true}
	var out []string
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" || seen[strings.ToLower(alias)] {
			continue
		}
		seen[strings.ToLower(alias)] = true
		out = append(out, alias)
	}
	return out
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			b.WriteByte('_')
		}
	}
	return b.String()
}
