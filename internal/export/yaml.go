package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/taskonaut/internal/report"
)

func WriteYAML(w io.Writer, r report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return enc.Close()
}

func ToYAML(r report.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteYAML(w, r) })
}
