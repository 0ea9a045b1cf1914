package util

import (
	"os"
	"path"
	"strings"
)

// EnsureDir creates the folder and its parents when missing
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, os.ModePerm)
}

// takes a save path and a variable number of strings and writes them to file
// separated by new lines, creating the parent folder
func WriteToFile(savePath string, content ...string) error {
	if err := EnsureDir(path.Dir(savePath)); err != nil {
		return err
	}
	return os.WriteFile(savePath, []byte(strings.Join(content, "\n")+"\n"), 0644)
}

// appends every string as its own line
func AppendToFile(savePath string, content ...string) error {
	if err := EnsureDir(path.Dir(savePath)); err != nil {
		return err
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}
