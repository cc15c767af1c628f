package assets

import "errors"

var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrInvalidAssetName = errors.New("invalid style name")
	ErrInvalidBasePath  = errors.New("invalid asset path")
	ErrAssetRead        = errors.New("reading style")
	ErrPathTraversal    = errors.New("style path escapes the asset path")
)
