package writers

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/hash"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/strutil"
	"github.com/google/uuid"
	"github.com/otiai10/copy"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"sync/atomic"
)

type FileWriter struct {
	dest string
	// hashes holds the content hash of every file written, keyed by its path.
	hashes map[string]uint64
}

func NewFileWriterToTempDir() *FileWriter {
	return &FileWriter{
		dest:   os.TempDir() + string(os.PathSeparator) + uuid.New().String() + string(os.PathSeparator),
		hashes: map[string]uint64{},
	}
}

func NewFileWriter(dest string) *FileWriter {
	if dest == "" {
		return NewFileWriterToTempDir()
	}

	return &FileWriter{
		dest:   strutil.EnsureSuffix(dest, string(os.PathSeparator)),
		hashes: map[string]uint64{},
	}
}

func (c FileWriter) Write(files map[string]string) (string, error) {
	for k, v := range files {
		if err := c.write(k, v); err != nil {
			return "", err
		}
	}
	return c.dest, nil
}

// CopyTo merges the written files into dest. Files whose content is already in dest are left untouched so
// their modification times survive repeated exports. It returns the number of files copied.
func (c FileWriter) CopyTo(dest string) (int, error) {
	var copied atomic.Int32

	err := copy.Copy(c.dest, dest, copy.Options{
		OnDirExists: func(src, dest string) copy.DirExistsAction {
			return copy.Merge
		},
		Skip: func(srcinfo os.FileInfo, src, dest string) (bool, error) {
			if srcinfo.IsDir() {
				return false, nil
			}

			unchanged, err := c.sameContent(srcinfo, src, dest)
			if err != nil {
				return false, err
			}

			if unchanged {
				zap.L().Debug(dest + " is unchanged")
				return true, nil
			}

			copied.Add(1)
			return false, nil
		},
	})

	return int(copied.Load()), err
}

// Remove deletes the directory the files were written to.
func (c FileWriter) Remove() error {
	return os.RemoveAll(c.dest)
}

func (c FileWriter) write(filename string, contents string) error {
	// create the directory
	if err := os.MkdirAll(filepath.Dir(c.dest+filename), os.ModePerm); err != nil {
		return err
	}

	if err := os.WriteFile(c.dest+filename, []byte(contents), 0644); err != nil {
		return err
	}

	c.hashes[filepath.Clean(c.dest+filename)] = hash.ContentHash([]byte(contents))
	return nil
}

// sameContent compares the size and content hash of the file written to src with the file already at dest.
func (c FileWriter) sameContent(srcinfo os.FileInfo, src string, dest string) (bool, error) {
	generated, found := c.hashes[filepath.Clean(src)]
	if !found {
		return false, nil
	}

	existing, err := os.ReadFile(dest)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return int64(len(existing)) == srcinfo.Size() && hash.ContentHash(existing) == generated, nil
}
