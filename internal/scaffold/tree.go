package scaffold

import (
	"os"
	"path/filepath"
	"strings"
)

// BuildFileTree renders the directory under rootPath as a visual tree,
// the way init shows the created project.
func BuildFileTree(rootPath string) (string, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		absPath = rootPath
	}

	var sb strings.Builder
	sb.WriteString(absPath + "/\n")
	if err := writeTree(&sb, rootPath, ""); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeTree(sb *strings.Builder, dir, indent string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		branch, childIndent := "├── ", indent+"│   "
		if i == len(entries)-1 {
			branch, childIndent = "└── ", indent+"    "
		}

		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		sb.WriteString(indent + branch + name + "\n")

		if entry.IsDir() {
			if err := writeTree(sb, filepath.Join(dir, entry.Name()), childIndent); err != nil {
				return err
			}
		}
	}
	return nil
}
