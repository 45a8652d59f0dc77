package pdfdoc

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Optimize rewrites the PDF at path in place, dropping duplicate and unused
// objects
func Optimize(path string) error {
	tmp := path + ".opt"
	if err := api.OptimizeFile(path, tmp, configuration()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("optimize %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("optimize %s: %w", path, err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path without
// rendering anything
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return n, nil
}
