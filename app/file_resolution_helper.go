package app

import "github.com/ludo-technologies/dupscan/domain"

// ResolveFilePaths resolves the documents a run should read.
// When every path names an existing file the paths are used as given, in
// order, so explicit file lists bypass include/exclude filtering. Otherwise
// files are collected from the paths using the filters.
func ResolveFilePaths(
	fileReader domain.FileReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := len(paths) > 0
	for _, path := range paths {
		// FileExists is true only for regular files, not directories
		exists, err := fileReader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileReader.CollectFiles(paths, recursive, includePatterns, excludePatterns)
}
