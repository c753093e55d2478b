package dirsource

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
)

// packageFiles writes files into a tar archive, gzip-compressed when compress
// is set. progress receives the percentage of files packaged so far.
func packageFiles(files []string, compress bool, progress func(percent int)) ([]byte, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf

	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(&buf)
		w = gz
	}
	tw := tar.NewWriter(w)

	for i, path := range files {
		if err := addFile(tw, path); err != nil {
			return nil, err
		}
		if progress != nil {
			progress((i + 1) * 100 / len(files))
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func addFile(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
