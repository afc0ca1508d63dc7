// Package fileutil provides the directory walk and file-name matching used to
// build a dump.
//
// # Walk
//
// Walk visits a tree top-down in a fixed order: the files of a directory come
// first, sorted by name, followed by its subdirectories, sorted by name, each
// visited recursively. The order only depends on the filesystem state, so two
// walks over an unchanged tree report the same paths in the same order.
//
// Paths are built by joining the visited directory and the entry name without
// cleaning, so a walk rooted at "." reports "./a.txt" and "./sub/b.md".
//
// Directories below the root that cannot be listed are skipped and reported
// through WalkOptions.OnDirError. Symlinks to directories are not followed.
//
//	err := fileutil.Walk(".", func(path string, d fs.DirEntry) error {
//	    fmt.Println(path)
//	    return nil
//	}, fileutil.WalkOptions{})
//
// # Matching
//
// Matcher holds an allow-set of extensions and file names. The file's name and
// extension are lower-cased before lookup, so entries are written in lower case
// (a mixed-case entry such as ".Dockerfile" never matches):
//
//	m := fileutil.NewMatcher(fileutil.MatchOptions{
//	    Extensions: []string{".md", "yaml"},
//	    Names:      []string{"dockerfile"},
//	})
//	m.Match("README.MD")  // true
//	m.Match("Dockerfile") // true
//	m.Match("Makefile")   // false
//
// Extensions follow SplitExt: the suffix from the last dot, where leading dots
// of a name (".bashrc") never count as an extension separator.
package fileutil
