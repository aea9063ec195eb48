package catalog

import "github.com/ostafen/unjffs2/internal/jffs2"

// ResolvePaths computes the path of every directory record relative to the
// output root. Records whose ancestry does not lead back to the root inode
// (missing parent, unnamed record or a cycle) keep an empty path and are
// reported in the returned slice.
func (c *Catalog) ResolvePaths() []*Dir {
	byIno := make(map[uint32]*Dir, len(c.dirs))
	for _, d := range c.dirs {
		d.Path = ""
		byIno[d.Ino] = d
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uint32]int, len(c.dirs))

	var resolve func(d *Dir) string
	resolve = func(d *Dir) string {
		switch state[d.Ino] {
		case visiting:
			return ""
		case done:
			return d.Path
		}
		state[d.Ino] = visiting
		defer func() { state[d.Ino] = done }()

		if d.Name == "" {
			return ""
		}
		if d.Pino == jffs2.RootIno {
			d.Path = "/" + d.Name
			return d.Path
		}

		parent, ok := byIno[d.Pino]
		if !ok {
			return ""
		}
		if pp := resolve(parent); pp != "" {
			d.Path = pp + "/" + d.Name
		}
		return d.Path
	}

	var unresolved []*Dir
	for _, d := range c.dirs {
		if resolve(d) == "" {
			unresolved = append(unresolved, d)
			c.logger.Warn("unable to resolve directory path", "ino", d.Ino, "pino", d.Pino, "name", d.Name)
		}
	}
	return unresolved
}

// DirPath returns the resolved path of the directory with the given inode
// number. The root inode resolves to the empty path.
func (c *Catalog) DirPath(ino uint32) (string, bool) {
	if ino == jffs2.RootIno {
		return "", true
	}

	d, ok := c.Dir(ino)
	if !ok || d.Path == "" {
		return "", false
	}
	return d.Path, true
}
