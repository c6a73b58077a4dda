// Package export writes batch reports as compressed bundles for
// handoff to the prompt-assembly stage.
package export

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"vulnctx/internal/batch"
	vcerrors "vulnctx/internal/errors"
)

// Bundle layout:
//
//	report.json              full batch report
//	contexts/<vulnId>.txt    one rendered context per result

// WriteBundle writes the report as a gzip-compressed tar bundle at
// path, creating parent directories as needed.
func WriteBundle(report *batch.Report, path string) error {
	if report == nil {
		return vcerrors.Newf(vcerrors.InternalError, "nil report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bundle: %w", err)
	}
	defer f.Close()

	if err := writeTo(report, f); err != nil {
		return err
	}
	return f.Close()
}

func writeTo(report *batch.Report, w io.Writer) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	now := time.Now()

	addFile := func(name string, data []byte) error {
		hdr := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing bundle entry %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("writing bundle entry %s: %w", name, err)
		}
		return nil
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := addFile("report.json", reportJSON); err != nil {
		return err
	}

	for _, result := range report.Results {
		name := "contexts/" + result.VulnID + ".txt"
		if err := addFile(name, []byte(result.Rendered)); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing bundle: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing bundle: %w", err)
	}
	return nil
}

// ReadBundle loads a bundle's report back; rendered contexts are
// reattached from the context entries when the report omits them.
func ReadBundle(path string) (*batch.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	defer gz.Close()

	var report *batch.Report
	contexts := map[string]string{}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading bundle: %w", err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading bundle entry %s: %w", hdr.Name, err)
		}

		switch {
		case hdr.Name == "report.json":
			report = &batch.Report{}
			if err := json.Unmarshal(data, report); err != nil {
				return nil, fmt.Errorf("decoding report: %w", err)
			}
		case filepath.Dir(hdr.Name) == "contexts":
			id := filepath.Base(hdr.Name)
			contexts[id[:len(id)-len(filepath.Ext(id))]] = string(data)
		}
	}

	if report == nil {
		return nil, vcerrors.Newf(vcerrors.InternalError, "bundle has no report.json")
	}
	for i := range report.Results {
		if report.Results[i].Rendered == "" {
			report.Results[i].Rendered = contexts[report.Results[i].VulnID]
		}
	}
	return report, nil
}
