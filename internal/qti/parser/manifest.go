package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Manifest struct {
	Resources []ManifestResource
}

type ManifestResource struct {
	Identifier string
	Href       string
	Type       string
	Files      []string
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Resources []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Href       string    `xml:"href,attr"`
	Type       string    `xml:"type,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

// UnzipToTemp extracts a package into a fresh temp dir and returns it.
// Entries that would land outside the dir are rejected.
func UnzipToTemp(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp("", "qti-*")
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		dst := filepath.Join(tmp, f.Name)
		if !strings.HasPrefix(dst, filepath.Clean(tmp)+string(os.PathSeparator)) {
			_ = os.RemoveAll(tmp)
			return "", fmt.Errorf("illegal path in package: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return "", err
			}
			continue
		}
		if err := extractFile(f, dst); err != nil {
			_ = os.RemoveAll(tmp)
			return "", err
		}
	}
	return tmp, nil
}

func extractFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ParseManifest reads imsmanifest.xml under base and returns the item hrefs it lists.
func ParseManifest(base string) (Manifest, []string, error) {
	var mfPath string
	for _, p := range []string{"imsmanifest.xml", "manifest.xml"} {
		if _, err := os.Stat(filepath.Join(base, p)); err == nil {
			mfPath = filepath.Join(base, p)
			break
		}
	}
	if mfPath == "" {
		return Manifest{}, nil, fmt.Errorf("imsmanifest.xml not found")
	}

	b, err := os.ReadFile(mfPath)
	if err != nil {
		return Manifest{}, nil, err
	}
	var mf imsManifest
	if err := xml.Unmarshal(b, &mf); err != nil {
		return Manifest{}, nil, err
	}

	var out Manifest
	var items []string
	for _, r := range mf.Resources {
		res := ManifestResource{Identifier: r.Identifier, Href: r.Href, Type: r.Type}
		for _, f := range r.Files {
			res.Files = append(res.Files, f.Href)
		}
		out.Resources = append(out.Resources, res)
		href := strings.ToLower(r.Href)
		if strings.HasSuffix(href, ".xml") && !strings.Contains(href, "manifest") {
			items = append(items, r.Href)
		}
	}
	return out, items, nil
}

// ReadPackage parses every item of a zipped package. Items that fail to parse are skipped.
func ReadPackage(r io.ReaderAt, size int64) (Manifest, []ParsedItem, error) {
	dir, err := UnzipToTemp(r, size)
	if err != nil {
		return Manifest{}, nil, err
	}
	defer os.RemoveAll(dir)

	mf, hrefs, err := ParseManifest(dir)
	if err != nil {
		return Manifest{}, nil, err
	}
	items := make([]ParsedItem, 0, len(hrefs))
	for _, h := range hrefs {
		it, err := ParseItemFile(dir, h)
		if err != nil {
			continue
		}
		items = append(items, it)
	}
	return mf, items, nil
}
