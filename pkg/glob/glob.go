package glob

import (
	"os"
	"runtime"
	"unicode/utf8"
)

// Glob calls cb on every path matching pattern, in the order the file
// system lists directory entries. hidden makes wildcards match a dot at
// the start of a path element. Globbing stops early and returns false when
// cb does. Patterns always use / as the separator, on every platform.
func Glob(pattern string, hidden bool, cb func(string) bool) bool {
	return Parse(pattern).Glob(hidden, cb)
}

// Glob calls cb on every path matching the pattern, like the package-level
// Glob.
func (p Pattern) Glob(hidden bool, cb func(string) bool) bool {
	segs := p.Segments
	dir := ""
	switch {
	case len(segs) > 0 && isSlash(segs[0]):
		segs = segs[1:]
		dir = "/"
	case runtime.GOOS == "windows" && len(segs) > 1 &&
		isLiteral(segs[0]) && isSlash(segs[1]):
		if elem := segs[0].(Literal).Data; isDrive(elem) {
			segs = segs[2:]
			dir = elem + "/"
		}
	}
	return glob(segs, dir, hidden, cb)
}

func isDrive(s string) bool {
	return len(s) == 2 && s[1] == ':' &&
		(('a' <= s[0] && s[0] <= 'z') || ('A' <= s[0] && s[0] <= 'Z'))
}

// glob matches segs under dir, which is either empty or ends in a slash.
func glob(segs []Segment, dir string, hidden bool, cb func(string) bool) bool {
	// Follow literal path elements directly. This is not an optimization:
	// "." and ".." never show up in directory listings, so patterns using
	// them can only be resolved by walking the path.
	for len(segs) > 1 && isLiteral(segs[0]) && isSlash(segs[1]) {
		elem := segs[0].(Literal).Data
		segs = segs[2:]
		dir += elem + "/"
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return true
		}
	}

	switch {
	case len(segs) == 0:
		return cb(dir)
	case len(segs) == 1 && isLiteral(segs[0]):
		path := dir + segs[0].(Literal).Data
		if _, err := os.Stat(path); err == nil {
			return cb(path)
		}
		return true
	}

	entries, err := readDir(dir)
	if err != nil {
		// An unreadable directory contributes no matches.
		return true
	}

	// i walks the positions in segs where a path separator may match: a
	// literal slash, or a ** which may stand for any number of elements.
	i := -1
	next := func() {
		for i++; i < len(segs); i++ {
			if isSlash(segs[i]) || isWild(segs[i], StarStar) {
				break
			}
		}
	}
	next()

	// With several ** in the pattern, the first separator may fall inside
	// any of them. For each candidate position, the part before it matches
	// one directory level and the rest recurses into the matched
	// subdirectories; a ** standing before the chosen position degrades to
	// * since it can no longer span a separator.
	for i < len(segs) {
		slash := isSlash(segs[i])
		var first, rest []Segment
		if slash {
			// segs = x/y: match one level with x, recurse with y.
			first, rest = segs[:i], segs[i+1:]
		} else {
			// segs = x**y: match one level with x*, recurse with **y.
			first, rest = segs[:i+1], segs[i:]
		}

		for _, entry := range entries {
			name := entry.Name()
			if matchElement(first, name, hidden) && entry.IsDir() {
				if !glob(rest, dir+name+"/", hidden, cb) {
					return false
				}
			}
		}

		if slash {
			// The first separator cannot fall past a literal slash.
			return true
		}
		next()
	}

	// No separator left in the pattern; match it against whole entries.
	for _, entry := range entries {
		name := entry.Name()
		if matchElement(segs, name, hidden) {
			if !cb(dir + name) {
				return false
			}
		}
	}
	return true
}

func readDir(dir string) ([]os.DirEntry, error) {
	if dir == "" {
		dir = "."
	}
	return os.ReadDir(dir)
}

// matchElement matches one path element against segments that contain no
// Slash. A StarStar here can no longer span a separator and matches like a
// Star.
func matchElement(segs []Segment, name string, hidden bool) bool {
	if len(segs) == 0 {
		return name == ""
	}
	if !hidden && len(name) > 0 && name[0] == '.' {
		if _, wild := segs[0].(Wild); wild {
			return false
		}
	}
segs:
	for len(segs) > 0 {
		// Take a chunk: an optional leading star followed by a run of
		// fixed-width segments, literals and questions.
		var i int
		for i = 1; i < len(segs); i++ {
			if isWild(segs[i], Star, StarStar) {
				break
			}
		}
		chunk := segs[:i]
		starred := isWild(chunk[0], Star, StarStar)
		if starred {
			chunk = chunk[1:]
		}
		segs = segs[i:]

		// Match the chunk at the current position. The last chunk must
		// exhaust the name.
		ok, rest := matchFixed(chunk, name)
		if ok && (rest == "" || len(segs) > 0) {
			name = rest
			continue
		}

		if starred {
			// Let the star grow one rune at a time and retry the chunk
			// after it, up to the star swallowing the whole rest.
			for j := 0; j < len(name); {
				_, n := utf8.DecodeRuneInString(name[j:])
				j += n
				ok, rest := matchFixed(chunk, name[j:])
				if ok && (rest == "" || len(segs) > 0) {
					name = rest
					continue segs
				}
			}
		}
		return false
	}
	return name == ""
}

// matchFixed matches a run of fixed-width segments against a prefix of
// name, returning whether it matched and what remains of name.
func matchFixed(segs []Segment, name string) (bool, string) {
	for _, seg := range segs {
		switch seg := seg.(type) {
		case Literal:
			n := len(seg.Data)
			if len(name) < n || name[:n] != seg.Data {
				return false, ""
			}
			name = name[n:]
		case Wild:
			_, n := utf8.DecodeRuneInString(name)
			if n == 0 {
				return false, ""
			}
			name = name[n:]
		}
	}
	return true, name
}
