package assets

import (
	"errors"
	"slices"
)

// AssetResolver looks styles up in the user's asset path first and in the
// embedded styles second.
type AssetResolver struct {
	custom   AssetLoader // nil without an asset path
	embedded AssetLoader
}

// NewAssetResolver returns a resolver over the embedded styles, layered
// under assetPath when it is not empty.
func NewAssetResolver(assetPath string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}
	if assetPath == "" {
		return r, nil
	}

	custom, err := NewFilesystemLoader(assetPath)
	if err != nil {
		return nil, err
	}
	r.custom = custom
	return r, nil
}

// LoadStyle falls back to the embedded style only when the asset path has
// no style of that name. Invalid names and read errors are returned as is.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom != nil {
		css, err := r.custom.LoadStyle(name)
		if !errors.Is(err, ErrStyleNotFound) {
			return css, err
		}
	}
	return r.embedded.LoadStyle(name)
}

// ListStyles merges both sources, sorted and deduplicated.
func (r *AssetResolver) ListStyles() ([]string, error) {
	names, err := r.embedded.ListStyles()
	if err != nil {
		return nil, err
	}
	if r.custom != nil {
		custom, err := r.custom.ListStyles()
		if err != nil {
			return nil, err
		}
		names = append(names, custom...)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// HasCustomLoader reports whether an asset path is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ AssetLoader = (*AssetResolver)(nil)
