// Package assets provides the CSS styles applied to converted documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - styles compiled in with go:embed
//	    ├── FilesystemLoader  - styles from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// A custom directory holds styles/{name}.css. Overriding "default" there
// replaces the built-in document style while other names keep working.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
