package fat32

import (
	"strings"
	"unicode/utf8"
)

// splitAbsolutePath validates that p is an absolute, valid UTF-8 path with
// no "." or ".." components and returns its non-empty components (empty
// ones, from the leading "/" or repeated separators, are skipped), per
// original_source/fat32/src/vfat/vfat.rs's FileSystem::open, which rejects
// anything that isn't Component::RootDir followed by Component::Normal
// elements.
func splitAbsolutePath(p string) ([]string, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, ErrInvalidInput.WithMessage("path must be absolute")
	}
	if !utf8.ValidString(p) {
		return nil, ErrInvalidInput.WithMessage("path is not valid UTF-8")
	}

	var components []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "":
			continue
		case ".", "..":
			return nil, ErrInvalidInput.WithMessage("path must not contain '.' or '..'")
		default:
			components = append(components, part)
		}
	}
	return components, nil
}

// resolve walks from the root directory entry down to the entry named by
// path's components. A missing component is ErrNotFound if it's the last
// component, else ErrInvalidInput ("directory does not exist"); a
// non-terminal component that resolves to a file is also ErrInvalidInput
// ("not a directory"), never ErrNotDirectory. This matches
// original_source/fat32/src/vfat/vfat.rs's FileSystem::open exactly.
func resolve(s store, geom Geometry, root Entry, components []string) (Entry, error) {
	current := root
	for i, name := range components {
		last := i == len(components)-1

		if !current.IsDir() {
			return Entry{}, ErrInvalidInput.WithMessage(name + ": not a directory")
		}
		next, err := findEntry(s, geom, current.Cluster, name)
		if err != nil {
			if last {
				return Entry{}, err
			}
			return Entry{}, ErrInvalidInput.WithMessage(name + ": directory does not exist")
		}
		current = next
	}
	return current, nil
}
